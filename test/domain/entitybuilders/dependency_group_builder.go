//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// DependencyGroupBuilder helps create test dependency groups with a fluent interface.
type DependencyGroupBuilder struct {
	*testkit.BaseBuilder
	group entities.DependencyGroup
}

// NewDependencyGroupBuilder creates a catch-all group named "group".
func NewDependencyGroupBuilder() *DependencyGroupBuilder {
	return &DependencyGroupBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		group:       entities.DependencyGroup{Name: "group"},
	}
}

// WithName sets the group name.
func (b *DependencyGroupBuilder) WithName(name string) *DependencyGroupBuilder {
	b.group.Name = name
	return b
}

// WithPatterns sets the "patterns" rule.
func (b *DependencyGroupBuilder) WithPatterns(patterns ...string) *DependencyGroupBuilder {
	b.group.Rules.Patterns = patterns
	return b
}

// WithExcludePatterns sets the "exclude-patterns" rule.
func (b *DependencyGroupBuilder) WithExcludePatterns(patterns ...string) *DependencyGroupBuilder {
	b.group.Rules.ExcludePatterns = patterns
	return b
}

// WithUpdateTypes sets the "update-types" rule.
func (b *DependencyGroupBuilder) WithUpdateTypes(updateTypes ...entities.UpdateType) *DependencyGroupBuilder {
	b.group.Rules.UpdateTypes = updateTypes
	return b
}

// WithMember adds an explicit member.
func (b *DependencyGroupBuilder) WithMember(name, directory string) *DependencyGroupBuilder {
	b.group.Members = append(b.group.Members, entities.GroupMember{Name: name, Directory: directory})
	return b
}

// WithAppliesTo sets the run purpose the group is for.
func (b *DependencyGroupBuilder) WithAppliesTo(appliesTo entities.AppliesTo) *DependencyGroupBuilder {
	b.group.AppliesTo = appliesTo
	return b
}

// Build creates the group (satisfies testkit.Builder interface).
func (b *DependencyGroupBuilder) Build() interface{} {
	return b.BuildGroup()
}

// BuildGroup creates the group with a concrete return type.
func (b *DependencyGroupBuilder) BuildGroup() entities.DependencyGroup {
	return b.group
}
