package commands

import (
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// GroupAssignment is the ordered member list of one group in one directory.
type GroupAssignment struct {
	Group        entities.DependencyGroup
	Dependencies []entities.Dependency
}

// GroupEngine assigns discovered dependencies to the configured groups.
type GroupEngine struct {
	scorer    *entities.SpecificityScorer
	container entities.DependencyContainer
	enforce   bool
	appliesTo entities.AppliesTo
}

// NewGroupEngine creates a GroupEngine. With enforce set, a dependency only
// joins the most specific group that contains it.
func NewGroupEngine(
	scorer *entities.SpecificityScorer,
	container entities.DependencyContainer,
	enforce bool,
	appliesTo entities.AppliesTo,
) *GroupEngine {
	if container == nil {
		container = entities.GroupContainment{}
	}
	return &GroupEngine{scorer: scorer, container: container, enforce: enforce, appliesTo: appliesTo}
}

// Assign returns one assignment per group (in group order, possibly empty)
// and the dependencies no group claimed.
func (it *GroupEngine) Assign(
	dependencies []entities.Dependency,
	directory string,
) ([]GroupAssignment, []entities.Dependency) {
	groups := it.scorer.Groups()
	assignments := make([]GroupAssignment, len(groups))
	for i, group := range groups {
		assignments[i].Group = group
	}

	var ungrouped []entities.Dependency
	for _, dep := range dependencies {
		claimed := false
		for i, group := range groups {
			if !it.container.ContainsDependency(group, dep, directory) {
				continue
			}
			if it.enforce && it.scorer.BelongsToMoreSpecificGroup(group, entities.ArbitrationQuery{
				Dependency: dep,
				Directory:  directory,
				AppliesTo:  it.appliesTo,
			}) {
				continue
			}
			assignments[i].Dependencies = append(assignments[i].Dependencies, dep)
			claimed = true
		}
		if !claimed {
			ungrouped = append(ungrouped, dep)
		}
	}
	return assignments, ungrouped
}
