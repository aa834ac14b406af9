package gomod

import (
	"context"
	"sync"

	"golang.org/x/mod/semver"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// updateChecker resolves the newest acceptable version of one module.
type updateChecker struct {
	proxy            *ProxyClient
	dependency       entities.Dependency
	ignoreConditions []entities.IgnoreCondition

	once       sync.Once
	candidates []string // newer than current, not ignored, ascending
	ignored    int
	err        error
}

func newUpdateChecker(
	proxy *ProxyClient,
	dependency entities.Dependency,
	ignoreConditions []entities.IgnoreCondition,
) *updateChecker {
	return &updateChecker{proxy: proxy, dependency: dependency, ignoreConditions: ignoreConditions}
}

func (c *updateChecker) LatestVersion(ctx context.Context) (string, error) {
	if err := c.load(ctx); err != nil {
		return "", err
	}
	if len(c.candidates) == 0 {
		if c.ignored > 0 {
			return "", &entities.AllVersionsIgnoredError{Dependency: c.dependency.Name}
		}
		return c.dependency.Version, nil
	}
	return c.candidates[len(c.candidates)-1], nil
}

func (c *updateChecker) UpToDate(ctx context.Context) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	return len(c.candidates) == 0, nil
}

// CanUpdate reports whether the requirement may move. A go.mod requirement
// is the version itself, so nothing is possible without unlocking it.
func (c *updateChecker) CanUpdate(ctx context.Context, unlock entities.RequirementsUnlock) (bool, error) {
	if unlock == entities.UnlockNone {
		return false, nil
	}
	upToDate, err := c.UpToDate(ctx)
	return !upToDate, err
}

func (c *updateChecker) UpdatedDependencies(
	ctx context.Context,
	_ entities.RequirementsUnlock,
) ([]entities.Dependency, error) {
	latest, err := c.LatestVersion(ctx)
	if err != nil {
		return nil, err
	}
	if latest == c.dependency.Version {
		return nil, nil
	}

	requirements := make([]entities.Requirement, len(c.dependency.Requirements))
	for i, req := range c.dependency.Requirements {
		req.Requirement = latest
		requirements[i] = req
	}
	return []entities.Dependency{c.dependency.WithVersion(latest, requirements)}, nil
}

// LowestSecurityFixVersion returns the closest acceptable newer version.
func (c *updateChecker) LowestSecurityFixVersion(ctx context.Context) (string, error) {
	if err := c.load(ctx); err != nil {
		return "", err
	}
	if len(c.candidates) == 0 {
		return c.dependency.Version, nil
	}
	return c.candidates[0], nil
}

func (c *updateChecker) load(ctx context.Context) error {
	c.once.Do(func() {
		var versions []string
		versions, c.err = c.proxy.ListVersions(ctx, c.dependency.Name)
		if c.err != nil {
			return
		}
		c.candidates, c.ignored = filterCandidates(c.dependency.Version, versions, c.ignoreConditions)
	})
	return c.err
}

// filterCandidates keeps the versions newer than current, dropping
// prereleases unless current is one, and splits off the ignored ones.
func filterCandidates(
	current string,
	versions []string,
	ignoreConditions []entities.IgnoreCondition,
) ([]string, int) {
	currentVersion, err := ParseModuleVersion(current)
	if err != nil {
		return nil, 0
	}
	allowPrerelease := semver.Prerelease(currentVersion.String()) != ""

	var candidates []string
	ignored := 0
	for _, raw := range versions {
		version, parseErr := ParseModuleVersion(raw)
		if parseErr != nil {
			continue
		}
		if semver.Compare(version.String(), currentVersion.String()) <= 0 {
			continue
		}
		if !allowPrerelease && semver.Prerelease(version.String()) != "" {
			continue
		}
		updateType, _ := entities.ClassifyBump(currentVersion.Segments(), version.Segments())
		if entities.IgnoredBy(ignoreConditions, version.String(), updateType) {
			ignored++
			continue
		}
		candidates = append(candidates, version.String())
	}
	semver.Sort(candidates)
	return candidates, ignored
}
