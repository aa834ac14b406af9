package repositories

import (
	"context"

	"github.com/go-git/go-billy/v5"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// FileFetcher reads the manifests an ecosystem cares about from a source directory.
type FileFetcher interface {
	FetchFiles(ctx context.Context, fs billy.Filesystem, directory string) ([]entities.DependencyFile, error)
}

// FileParser re-parses a directory's current files into fresh dependencies.
type FileParser interface {
	ParseFiles(ctx context.Context, files []entities.DependencyFile) ([]entities.Dependency, error)
}

// UpdateChecker reports whether one dependency is up to date and what update
// it would need. Implementations return an *entities.AllVersionsIgnoredError
// when ignore conditions exclude every candidate version, and an
// *entities.InconsistentRegistryResponseError on transient registry trouble.
type UpdateChecker interface {
	UpToDate(ctx context.Context) (bool, error)
	CanUpdate(ctx context.Context, unlock entities.RequirementsUnlock) (bool, error)
	UpdatedDependencies(ctx context.Context, unlock entities.RequirementsUnlock) ([]entities.Dependency, error)
	LatestVersion(ctx context.Context) (string, error)
	LowestSecurityFixVersion(ctx context.Context) (string, error)
}

// UpdateCheckerFactory builds a checker for a dependency against the current files.
type UpdateCheckerFactory interface {
	NewUpdateChecker(
		dependency entities.Dependency,
		files []entities.DependencyFile,
		ignoreConditions []entities.IgnoreCondition,
	) UpdateChecker
}

// FileUpdater rewrites files so that every updated dependency is applied.
type FileUpdater interface {
	UpdateFiles(
		ctx context.Context,
		lead entities.Dependency,
		updated []entities.Dependency,
		files []entities.DependencyFile,
	) ([]entities.DependencyFile, error)
}

// Version is an ecosystem version split into comparable numeric segments.
type Version interface {
	Segments() []int
	String() string
}

// VersionParser is the ecosystem's version type.
type VersionParser interface {
	ParseVersion(raw string) (Version, error)
}

// EcosystemRepository abstracts a package ecosystem (Go modules, Terraform modules, etc.).
type EcosystemRepository interface {
	// Name returns the package manager identifier (e.g. "go_modules", "terraform").
	Name() string

	FileFetcher
	FileParser
	UpdateCheckerFactory
	FileUpdater
	VersionParser
}
