package entities

import (
	"slices"
	"sort"
)

// SelectionReason records why a dependency ended up in a change.
type SelectionReason string

const (
	SelectedByChecker    SelectionReason = "checker"
	SelectedAsSideEffect SelectionReason = "side_effect"
)

// UpdatedDependency wraps an updated Dependency with the directory it was
// updated in, instead of annotating the shared Dependency value.
type UpdatedDependency struct {
	Dependency
	Directory string
	Reason    SelectionReason
}

// NoticeMode is the severity of a Notice.
type NoticeMode string

const (
	NoticeModeInfo    NoticeMode = "INFO"
	NoticeModeWarning NoticeMode = "WARN"
)

// Notice is an advisory message attached to a change for the pull request body.
type Notice struct {
	Mode        NoticeMode
	Type        string
	Title       string
	Description string
}

// ChangeRecord is the aggregate result of updating one or more dependencies:
// the dependencies that moved, the files that changed, and the group (if any)
// it was built for.
type ChangeRecord struct {
	UpdatedDependencies []UpdatedDependency
	UpdatedFiles        []DependencyFile
	Group               *DependencyGroup
	Notices             []Notice
}

// IsGrouped reports whether the change was produced for a dependency group.
func (c *ChangeRecord) IsGrouped() bool {
	return c.Group != nil
}

// IsEmpty reports whether the change updates no dependency.
func (c *ChangeRecord) IsEmpty() bool {
	return len(c.UpdatedDependencies) == 0
}

// DependencyNames returns the sorted, de-duplicated names of the updated dependencies.
func (c *ChangeRecord) DependencyNames() []string {
	names := make([]string, 0, len(c.UpdatedDependencies))
	for _, dep := range c.UpdatedDependencies {
		names = append(names, dep.Name)
	}
	sort.Strings(names)
	return slices.Compact(names)
}

// AllHavePreviousVersion reports whether the change is consistent as a whole:
// either every updated dependency changed its requirements or every one knows
// the version it moved from.
func (c *ChangeRecord) AllHavePreviousVersion() bool {
	allRequirementsChanged := true
	allPreviousVersions := true
	for _, dep := range c.UpdatedDependencies {
		if !dep.RequirementsChanged() {
			allRequirementsChanged = false
		}
		if dep.PreviousVersion == "" {
			allPreviousVersions = false
		}
	}
	return allRequirementsChanged || allPreviousVersions
}

// PullRequestDependency is the dependency state recorded on an open pull request.
type PullRequestDependency struct {
	Name      string `yaml:"dependency-name"`
	Version   string `yaml:"dependency-version"`
	Directory string `yaml:"directory"`
	Removed   bool   `yaml:"dependency-removed"`
}

// ExistingPullRequest is an open pull request previously raised for a group.
type ExistingPullRequest struct {
	Number       int                     `yaml:"number"`
	GroupName    string                  `yaml:"dependency-group-name"`
	Dependencies []PullRequestDependency `yaml:"dependencies"`
}

// DependencyNames returns the sorted, de-duplicated names on the pull request.
func (p ExistingPullRequest) DependencyNames() []string {
	names := make([]string, 0, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		names = append(names, dep.Name)
	}
	sort.Strings(names)
	return slices.Compact(names)
}

// HasSameDependencies reports whether the change touches exactly the dependency
// names of the pull request.
func (c *ChangeRecord) HasSameDependencies(existing ExistingPullRequest) bool {
	return slices.Equal(c.DependencyNames(), existing.DependencyNames())
}

// MatchesExistingPullRequest reports whether the change moves the same
// dependencies to the same versions (per directory) as the pull request.
func (c *ChangeRecord) MatchesExistingPullRequest(existing ExistingPullRequest) bool {
	return slices.Equal(c.pullRequestDependencies(), sortedPullRequestDependencies(existing.Dependencies))
}

func (c *ChangeRecord) pullRequestDependencies() []PullRequestDependency {
	deps := make([]PullRequestDependency, 0, len(c.UpdatedDependencies))
	for _, dep := range c.UpdatedDependencies {
		deps = append(deps, PullRequestDependency{
			Name:      dep.Name,
			Version:   dep.Version,
			Directory: NormalizeDirectory(dep.Directory),
			Removed:   dep.Version == "" && dep.PreviousVersion != "",
		})
	}
	return sortedPullRequestDependencies(deps)
}

func sortedPullRequestDependencies(deps []PullRequestDependency) []PullRequestDependency {
	out := make([]PullRequestDependency, len(deps))
	for i, dep := range deps {
		dep.Directory = NormalizeDirectory(dep.Directory)
		out[i] = dep
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Directory < out[j].Directory
	})
	return slices.Compact(out)
}
