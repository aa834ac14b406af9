package entities

import "slices"

// UpdateType is the semantic-version magnitude of a version bump.
type UpdateType string

const (
	UpdateTypeMajor UpdateType = "major"
	UpdateTypeMinor UpdateType = "minor"
	UpdateTypePatch UpdateType = "patch"
)

// AppliesTo is the run purpose a group is configured for.
type AppliesTo string

const (
	AppliesToVersionUpdates  AppliesTo = "version-updates"
	AppliesToSecurityUpdates AppliesTo = "security-updates"
)

// GroupRules selects the dependencies that belong to a group.
type GroupRules struct {
	Patterns        []string     `yaml:"patterns"`
	ExcludePatterns []string     `yaml:"exclude-patterns"`
	UpdateTypes     []UpdateType `yaml:"update-types"`
	DependencyNames []string     `yaml:"dependency-names"`
}

// GroupMember is a dependency explicitly listed as part of a group. An empty
// Directory means the membership holds for every directory.
type GroupMember struct {
	Name      string `yaml:"name"`
	Directory string `yaml:"directory"`
}

// DependencyContainer decides whether a group contains a dependency found in a directory.
type DependencyContainer interface {
	ContainsDependency(group DependencyGroup, dependency Dependency, directory string) bool
}

// DependencyGroup is a named bundle of dependencies proposed together in one pull request.
// Groups are read once per run and never modified afterwards.
type DependencyGroup struct {
	Name      string        `yaml:"name"`
	AppliesTo AppliesTo     `yaml:"applies-to"`
	Rules     GroupRules    `yaml:"rules"`
	Members   []GroupMember `yaml:"members"`
}

// HasPatterns reports whether the group declares inclusion patterns.
func (g DependencyGroup) HasPatterns() bool {
	return len(g.Rules.Patterns) > 0
}

// IsExplicitMember reports whether the dependency is listed by name, either in
// the member list or in the "dependency-names" rule.
func (g DependencyGroup) IsExplicitMember(name, directory string) bool {
	if slices.Contains(g.Rules.DependencyNames, name) {
		return true
	}
	for _, member := range g.Members {
		if member.Name != name {
			continue
		}
		if member.Directory == "" || NormalizeDirectory(member.Directory) == NormalizeDirectory(directory) {
			return true
		}
	}
	return false
}

// Excludes reports whether any exclude pattern matches the dependency name.
func (g DependencyGroup) Excludes(name string) bool {
	return MatchesAny(g.Rules.ExcludePatterns, name)
}

// AllowsUpdateType reports whether the "update-types" rule permits the bump.
// Groups without the rule permit any bump.
func (g DependencyGroup) AllowsUpdateType(updateType UpdateType) bool {
	if len(g.Rules.UpdateTypes) == 0 {
		return true
	}
	return slices.Contains(g.Rules.UpdateTypes, updateType)
}

// IsFor reports whether the group applies to the given run purpose. Groups
// without "applies-to" are version-update groups.
func (g DependencyGroup) IsFor(appliesTo AppliesTo) bool {
	own := g.AppliesTo
	if own == "" {
		own = AppliesToVersionUpdates
	}
	return own == appliesTo
}

// ContainsDependency implements DependencyContainer: explicit members always
// belong, excluded names never do, and otherwise the patterns decide. A group
// with neither patterns nor explicit names is a catch-all.
func (g DependencyGroup) ContainsDependency(dependency Dependency, directory string) bool {
	if g.IsExplicitMember(dependency.Name, directory) {
		return true
	}
	if g.Excludes(dependency.Name) {
		return false
	}
	if !g.HasPatterns() {
		return len(g.Rules.DependencyNames) == 0 && len(g.Members) == 0
	}
	return MatchesAny(g.Rules.Patterns, dependency.Name)
}

// HasExplicitMembers reports whether the group lists dependencies by name.
func (g DependencyGroup) HasExplicitMembers() bool {
	return len(g.Members) > 0 || len(g.Rules.DependencyNames) > 0
}

// GroupContainment is the DependencyContainer backed by the group's own rules.
// Groups without explicit members are matched by PatternContainment.
type GroupContainment struct{}

func (GroupContainment) ContainsDependency(group DependencyGroup, dependency Dependency, directory string) bool {
	if !group.HasExplicitMembers() {
		return PatternContainment{}.ContainsDependency(group, dependency, directory)
	}
	return group.ContainsDependency(dependency, directory)
}

// PatternContainment is the fallback DependencyContainer that ignores explicit
// membership and directories and only looks at name patterns.
type PatternContainment struct{}

func (PatternContainment) ContainsDependency(group DependencyGroup, dependency Dependency, _ string) bool {
	if group.Excludes(dependency.Name) {
		return false
	}
	if !group.HasPatterns() {
		return true
	}
	return MatchesAny(group.Rules.Patterns, dependency.Name)
}
