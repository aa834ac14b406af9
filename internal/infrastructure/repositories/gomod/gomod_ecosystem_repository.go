package gomod

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

const (
	packageManager = "go_modules"
	goModFile      = "go.mod"
	goSumFile      = "go.sum"
	vendorManifest = "vendor/modules.txt"
	indirectGroup  = "indirect"
)

// GoModEcosystemRepository implements repositories.EcosystemRepository for Go modules.
// Versions are listed from the module proxy; go.mod is rewritten with modfile.
type GoModEcosystemRepository struct {
	proxy *ProxyClient
}

// NewGoModEcosystemRepository creates the Go modules ecosystem using GOPROXY.
func NewGoModEcosystemRepository() repositories.EcosystemRepository {
	return &GoModEcosystemRepository{proxy: NewProxyClient(os.Getenv("GOPROXY"))}
}

// NewGoModEcosystemRepositoryWithProxy creates the ecosystem with a custom proxy client.
func NewGoModEcosystemRepositoryWithProxy(proxy *ProxyClient) repositories.EcosystemRepository {
	return &GoModEcosystemRepository{proxy: proxy}
}

func (r *GoModEcosystemRepository) Name() string { return packageManager }

// FetchFiles reads go.mod (required), go.sum and vendor/modules.txt from the directory.
func (r *GoModEcosystemRepository) FetchFiles(
	_ context.Context,
	filesystem billy.Filesystem,
	directory string,
) ([]entities.DependencyFile, error) {
	directory = entities.NormalizeDirectory(directory)
	root := strings.TrimPrefix(directory, "/")

	var files []entities.DependencyFile
	for _, name := range []string{goModFile, goSumFile, vendorManifest} {
		content, err := util.ReadFile(filesystem, path.Join(root, name))
		if err != nil {
			if name == goModFile {
				return nil, entities.NewUpdaterError(
					entities.ErrorTypeDependencyFileNotFound,
					fmt.Errorf("%s not found in %s: %w", goModFile, directory, fs.ErrNotExist),
					map[string]any{"file-path": path.Join(directory, goModFile)},
				)
			}
			continue
		}
		files = append(files, entities.DependencyFile{
			Name:      name,
			Directory: directory,
			Content:   string(content),
			Operation: entities.FileOperationUpdate,
			Vendored:  name == vendorManifest,
		})
	}
	return files, nil
}

// ParseFiles returns one dependency per require directive of go.mod.
func (r *GoModEcosystemRepository) ParseFiles(
	_ context.Context,
	files []entities.DependencyFile,
) ([]entities.Dependency, error) {
	file, ok := findFile(files, goModFile)
	if !ok {
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeDependencyFileNotFound,
			fmt.Errorf("%s is missing: %w", goModFile, fs.ErrNotExist),
			nil,
		)
	}

	parsed, err := modfile.Parse(file.Path(), []byte(file.Content), nil)
	if err != nil {
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeDependencyFileNotParseable,
			err,
			map[string]any{"file-path": file.Path()},
		)
	}

	replaced := make(map[string]struct{}, len(parsed.Replace))
	for _, rep := range parsed.Replace {
		replaced[rep.Old.Path] = struct{}{}
	}

	deps := make([]entities.Dependency, 0, len(parsed.Require))
	for _, req := range parsed.Require {
		if _, ok := replaced[req.Mod.Path]; ok {
			logger.Debugf("Skipping %s: replaced in %s", req.Mod.Path, file.Path())
			continue
		}
		var groups []string
		if req.Indirect {
			groups = []string{indirectGroup}
		}
		deps = append(deps, entities.Dependency{
			Name:    req.Mod.Path,
			Version: req.Mod.Version,
			Requirements: []entities.Requirement{{
				File:        goModFile,
				Requirement: req.Mod.Version,
				Groups:      groups,
			}},
			PackageManager: packageManager,
		})
	}
	return deps, nil
}

// NewUpdateChecker creates a proxy-backed checker for one module.
func (r *GoModEcosystemRepository) NewUpdateChecker(
	dependency entities.Dependency,
	_ []entities.DependencyFile,
	ignoreConditions []entities.IgnoreCondition,
) repositories.UpdateChecker {
	return newUpdateChecker(r.proxy, dependency, ignoreConditions)
}

// UpdateFiles rewrites the require directives of go.mod and the matching
// headers of vendor/modules.txt. The vendor manifest is only returned when one
// of its headers moved. go.sum is left for the toolchain.
func (r *GoModEcosystemRepository) UpdateFiles(
	_ context.Context,
	_ entities.Dependency,
	updated []entities.Dependency,
	files []entities.DependencyFile,
) ([]entities.DependencyFile, error) {
	result := make([]entities.DependencyFile, 0, len(files))
	for _, file := range files {
		switch file.Name {
		case goModFile:
			content, err := updateGoMod(file, updated)
			if err != nil {
				return nil, err
			}
			file.Content = content
		case vendorManifest:
			content := updateVendorManifest(file.Content, updated)
			if content == file.Content {
				continue
			}
			file.Content = content
		default:
			continue
		}
		result = append(result, file)
	}
	return result, nil
}

// ParseVersion parses a module version; a missing "v" prefix is tolerated.
func (r *GoModEcosystemRepository) ParseVersion(raw string) (repositories.Version, error) {
	return ParseModuleVersion(raw)
}

func updateGoMod(file entities.DependencyFile, updated []entities.Dependency) (string, error) {
	parsed, err := modfile.Parse(file.Path(), []byte(file.Content), nil)
	if err != nil {
		return "", entities.NewUpdaterError(entities.ErrorTypeDependencyFileNotParseable, err, nil)
	}
	for _, dep := range updated {
		if err = parsed.AddRequire(dep.Name, dep.Version); err != nil {
			return "", entities.NewUpdaterError(
				entities.ErrorTypeDependencyFileNotResolvable,
				fmt.Errorf("failed to require %s@%s: %w", dep.Name, dep.Version, err),
				map[string]any{"dependency-name": dep.Name},
			)
		}
	}
	parsed.Cleanup()
	formatted, err := parsed.Format()
	if err != nil {
		return "", fmt.Errorf("failed to format %s: %w", file.Path(), err)
	}
	return string(formatted), nil
}

func updateVendorManifest(content string, updated []entities.Dependency) string {
	for _, dep := range updated {
		header := regexp.MustCompile(`(?m)^# ` + regexp.QuoteMeta(dep.Name) + ` \S+$`)
		content = header.ReplaceAllString(content, "# "+dep.Name+" "+dep.Version)
	}
	return content
}

func findFile(files []entities.DependencyFile, name string) (entities.DependencyFile, bool) {
	for _, file := range files {
		if file.Name == name {
			return file, true
		}
	}
	return entities.DependencyFile{}, false
}

// --- versions ---

// ModuleVersion is a semantic module version such as "v1.4.2".
type ModuleVersion struct {
	raw      string
	segments []int
}

// ParseModuleVersion validates raw with x/mod/semver.
func ParseModuleVersion(raw string) (*ModuleVersion, error) {
	canonical := normalizeVersion(raw)
	if !semver.IsValid(canonical) {
		return nil, fmt.Errorf("invalid module version %q", raw)
	}

	core := strings.TrimPrefix(semver.Canonical(canonical), "v")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	parts := strings.Split(core, ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid module version %q: %w", raw, err)
		}
		segments = append(segments, n)
	}
	return &ModuleVersion{raw: canonical, segments: segments}, nil
}

func (v *ModuleVersion) Segments() []int { return v.segments }
func (v *ModuleVersion) String() string  { return v.raw }

func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
