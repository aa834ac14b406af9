//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// ManifestName is the single manifest the spy ecosystem reads. Each line is
// "name version".
const ManifestName = "deps.txt"

// SpyEcosystemRepository implements repositories.EcosystemRepository over a
// tiny line-based manifest, recording every interaction.
type SpyEcosystemRepository struct {
	PackageManager string

	// --- FetchFiles ---
	FilesByDirectory map[string][]entities.DependencyFile
	FetchErr         map[string]error

	// --- ParseFiles ---
	ParseErr error

	// --- UpdateChecker ---
	LatestVersions   map[string]string                // name -> newest version
	LatestErr        map[string]error                 // name -> error from LatestVersion
	UpdateErr        map[string]error                 // name -> error from UpdatedDependencies
	SideEffects      map[string][]entities.Dependency // name -> extra deps that move with it

	// --- CanUpdate ---
	RequiresUnlockAll bool

	// --- FileUpdater ---
	UpdateFilesErr map[string]error // lead name -> error

	mu               sync.Mutex
	CheckedNames     []string
	UpdatedLeads     []string
	IgnoreConditions map[string][]entities.IgnoreCondition
}

var _ repositories.EcosystemRepository = (*SpyEcosystemRepository)(nil)

// NewSpyEcosystemRepository creates a spy with empty tables.
func NewSpyEcosystemRepository() *SpyEcosystemRepository {
	return &SpyEcosystemRepository{
		PackageManager:   "spy",
		FilesByDirectory: map[string][]entities.DependencyFile{},
		FetchErr:         map[string]error{},
		LatestVersions:   map[string]string{},
		LatestErr:        map[string]error{},
		UpdateErr:        map[string]error{},
		SideEffects:      map[string][]entities.Dependency{},
		UpdateFilesErr:   map[string]error{},
		IgnoreConditions: map[string][]entities.IgnoreCondition{},
	}
}

// Manifest builds a manifest file for a directory from "name version" pairs.
func Manifest(directory string, pairs ...string) entities.DependencyFile {
	var sb strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		sb.WriteString(pairs[i] + " " + pairs[i+1] + "\n")
	}
	return entities.DependencyFile{
		Name:      ManifestName,
		Directory: entities.NormalizeDirectory(directory),
		Content:   sb.String(),
		Operation: entities.FileOperationUpdate,
	}
}

// Checked returns the names passed to NewUpdateChecker, in call order.
func (s *SpyEcosystemRepository) Checked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.CheckedNames...)
}

func (s *SpyEcosystemRepository) Name() string { return s.PackageManager }

func (s *SpyEcosystemRepository) FetchFiles(
	_ context.Context,
	_ billy.Filesystem,
	directory string,
) ([]entities.DependencyFile, error) {
	directory = entities.NormalizeDirectory(directory)
	if err := s.FetchErr[directory]; err != nil {
		return nil, err
	}
	return s.FilesByDirectory[directory], nil
}

func (s *SpyEcosystemRepository) ParseFiles(
	_ context.Context,
	files []entities.DependencyFile,
) ([]entities.Dependency, error) {
	if s.ParseErr != nil {
		return nil, s.ParseErr
	}
	var deps []entities.Dependency
	for _, file := range files {
		if file.Name != ManifestName {
			continue
		}
		for _, line := range strings.Split(strings.TrimSpace(file.Content), "\n") {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			deps = append(deps, entities.Dependency{
				Name:           fields[0],
				Version:        fields[1],
				Requirements:   []entities.Requirement{{File: ManifestName, Requirement: fields[1]}},
				PackageManager: s.PackageManager,
			})
		}
	}
	return deps, nil
}

func (s *SpyEcosystemRepository) NewUpdateChecker(
	dependency entities.Dependency,
	_ []entities.DependencyFile,
	ignoreConditions []entities.IgnoreCondition,
) repositories.UpdateChecker {
	s.mu.Lock()
	s.CheckedNames = append(s.CheckedNames, dependency.Name)
	s.IgnoreConditions[dependency.Name] = ignoreConditions
	s.mu.Unlock()
	return &spyUpdateChecker{spy: s, dependency: dependency}
}

func (s *SpyEcosystemRepository) UpdateFiles(
	_ context.Context,
	lead entities.Dependency,
	updated []entities.Dependency,
	files []entities.DependencyFile,
) ([]entities.DependencyFile, error) {
	s.mu.Lock()
	s.UpdatedLeads = append(s.UpdatedLeads, lead.Name)
	s.mu.Unlock()
	if err := s.UpdateFilesErr[lead.Name]; err != nil {
		return nil, err
	}

	result := make([]entities.DependencyFile, 0, len(files))
	for _, file := range files {
		lines := strings.Split(strings.TrimSpace(file.Content), "\n")
		for i, line := range lines {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			for _, dep := range updated {
				if dep.Name == fields[0] {
					lines[i] = dep.Name + " " + dep.Version
				}
			}
		}
		file.Content = strings.Join(lines, "\n") + "\n"
		result = append(result, file)
	}
	return result, nil
}

func (s *SpyEcosystemRepository) ParseVersion(raw string) (repositories.Version, error) {
	parts := strings.Split(strings.TrimPrefix(raw, "v"), ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q", raw)
		}
		segments = append(segments, n)
	}
	return spyVersion{raw: raw, segments: segments}, nil
}

type spyVersion struct {
	raw      string
	segments []int
}

func (v spyVersion) Segments() []int { return v.segments }
func (v spyVersion) String() string  { return v.raw }

type spyUpdateChecker struct {
	spy        *SpyEcosystemRepository
	dependency entities.Dependency
}

func (c *spyUpdateChecker) latest() string {
	if latest, ok := c.spy.LatestVersions[c.dependency.Name]; ok {
		return latest
	}
	return c.dependency.Version
}

func (c *spyUpdateChecker) UpToDate(_ context.Context) (bool, error) {
	return c.latest() == c.dependency.Version, nil
}

func (c *spyUpdateChecker) CanUpdate(_ context.Context, unlock entities.RequirementsUnlock) (bool, error) {
	if c.latest() == c.dependency.Version {
		return false, nil
	}
	if c.spy.RequiresUnlockAll {
		return unlock == entities.UnlockAll, nil
	}
	return unlock != entities.UnlockNone, nil
}

func (c *spyUpdateChecker) UpdatedDependencies(
	_ context.Context,
	_ entities.RequirementsUnlock,
) ([]entities.Dependency, error) {
	if err := c.spy.UpdateErr[c.dependency.Name]; err != nil {
		return nil, err
	}
	latest := c.latest()
	updated := []entities.Dependency{c.dependency.WithVersion(latest, []entities.Requirement{
		{File: ManifestName, Requirement: latest},
	})}
	return append(updated, c.spy.SideEffects[c.dependency.Name]...), nil
}

func (c *spyUpdateChecker) LatestVersion(_ context.Context) (string, error) {
	if err := c.spy.LatestErr[c.dependency.Name]; err != nil {
		return "", err
	}
	return c.latest(), nil
}

func (c *spyUpdateChecker) LowestSecurityFixVersion(_ context.Context) (string, error) {
	if c.latest() == c.dependency.Version {
		return "", errors.New("no fix available")
	}
	return c.latest(), nil
}
