//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// DependencyBuilder helps create test dependencies with a fluent interface.
type DependencyBuilder struct {
	*testkit.BaseBuilder
	name            string
	version         string
	previousVersion string
	file            string
	packageManager  string
}

// NewDependencyBuilder creates a new dependency builder with sensible defaults.
func NewDependencyBuilder() *DependencyBuilder {
	return &DependencyBuilder{
		BaseBuilder:    testkit.NewBaseBuilder(),
		name:           "test-dependency",
		version:        "1.0.0",
		file:           "deps.txt",
		packageManager: "spy",
	}
}

// WithName sets the dependency name.
func (b *DependencyBuilder) WithName(name string) *DependencyBuilder {
	b.name = name
	return b
}

// WithVersion sets the current version.
func (b *DependencyBuilder) WithVersion(version string) *DependencyBuilder {
	b.version = version
	return b
}

// WithPreviousVersion sets the version the dependency moved from.
func (b *DependencyBuilder) WithPreviousVersion(version string) *DependencyBuilder {
	b.previousVersion = version
	return b
}

// WithFile sets the manifest that declares the dependency.
func (b *DependencyBuilder) WithFile(file string) *DependencyBuilder {
	b.file = file
	return b
}

// WithPackageManager sets the package manager.
func (b *DependencyBuilder) WithPackageManager(packageManager string) *DependencyBuilder {
	b.packageManager = packageManager
	return b
}

// Build creates the dependency (satisfies testkit.Builder interface).
func (b *DependencyBuilder) Build() interface{} {
	return b.BuildDependency()
}

// BuildDependency creates the dependency with a concrete return type.
func (b *DependencyBuilder) BuildDependency() entities.Dependency {
	dep := entities.Dependency{
		Name:           b.name,
		Version:        b.version,
		Requirements:   []entities.Requirement{{File: b.file, Requirement: b.version}},
		PackageManager: b.packageManager,
	}
	if b.previousVersion != "" {
		dep.PreviousVersion = b.previousVersion
		dep.PreviousRequirements = []entities.Requirement{{File: b.file, Requirement: b.previousVersion}}
	}
	return dep
}
