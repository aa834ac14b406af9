package terraform

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// TagVersion is a semantic version read from a git tag.
type TagVersion struct {
	tag     string
	version *semver.Version
}

// ParseTagVersion parses a tag leniently ("v1", "1.2", "v1.2.3-rc.1").
func ParseTagVersion(raw string) (*TagVersion, error) {
	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid tag version %q: %w", raw, err)
	}
	return &TagVersion{tag: raw, version: version}, nil
}

func (v *TagVersion) Segments() []int {
	return []int{int(v.version.Major()), int(v.version.Minor()), int(v.version.Patch())} //nolint:gosec // tag numbers are small
}

func (v *TagVersion) String() string { return v.tag }

// updateChecker resolves the newest acceptable tag of one module source.
type updateChecker struct {
	tags             TagLister
	dependency       entities.Dependency
	ignoreConditions []entities.IgnoreCondition

	once       sync.Once
	candidates []*TagVersion // newer than current, not ignored, ascending
	ignored    int
	err        error
}

func newUpdateChecker(
	tags TagLister,
	dependency entities.Dependency,
	ignoreConditions []entities.IgnoreCondition,
) *updateChecker {
	return &updateChecker{tags: tags, dependency: dependency, ignoreConditions: ignoreConditions}
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
	return c.candidates[len(c.candidates)-1].String(), nil
}

func (c *updateChecker) UpToDate(ctx context.Context) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	return len(c.candidates) == 0, nil
}

// CanUpdate reports whether the pinned ref may move. A "?ref=" pin is the
// version itself, so nothing is possible without unlocking it.
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

// LowestSecurityFixVersion returns the closest acceptable newer tag.
func (c *updateChecker) LowestSecurityFixVersion(ctx context.Context) (string, error) {
	if err := c.load(ctx); err != nil {
		return "", err
	}
	if len(c.candidates) == 0 {
		return c.dependency.Version, nil
	}
	return c.candidates[0].String(), nil
}

func (c *updateChecker) load(ctx context.Context) error {
	c.once.Do(func() {
		source := c.dependency.Name
		if len(c.dependency.Requirements) > 0 && c.dependency.Requirements[0].Source != "" {
			source = c.dependency.Requirements[0].Source
		}

		var tags []string
		tags, c.err = c.tags.ListTags(ctx, source)
		if c.err != nil {
			return
		}
		c.candidates, c.ignored = filterCandidates(c.dependency.Version, tags, c.ignoreConditions)
	})
	return c.err
}

// filterCandidates keeps tags newer than current, dropping prereleases unless
// current is one, and splits off the ignored ones. Ignore versions may be
// constraints (">= 3.0") or "*" patterns.
func filterCandidates(
	current string,
	tags []string,
	ignoreConditions []entities.IgnoreCondition,
) ([]*TagVersion, int) {
	currentVersion, err := ParseTagVersion(current)
	if err != nil {
		return nil, 0
	}
	newer, err := semver.NewConstraint("> " + currentVersion.version.String())
	if err != nil {
		return nil, 0
	}
	if currentVersion.version.Prerelease() != "" {
		newer.IncludePrerelease = true
	}

	var candidates []*TagVersion
	ignored := 0
	for _, tag := range tags {
		version, parseErr := ParseTagVersion(tag)
		if parseErr != nil || !newer.Check(version.version) {
			continue
		}
		updateType, _ := entities.ClassifyBump(currentVersion.Segments(), version.Segments())
		if entities.IgnoredBy(ignoreConditions, tag, updateType) || ignoredByConstraint(ignoreConditions, version) {
			ignored++
			continue
		}
		candidates = append(candidates, version)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].version.LessThan(candidates[j].version)
	})
	return candidates, ignored
}

func ignoredByConstraint(conditions []entities.IgnoreCondition, version *TagVersion) bool {
	for _, condition := range conditions {
		for _, raw := range condition.Versions {
			constraint, err := semver.NewConstraint(raw)
			if err != nil {
				continue
			}
			if constraint.Check(version.version) {
				return true
			}
		}
	}
	return false
}
