package entities

import (
	gitforgeEntities "github.com/rios0rios0/gitforge/pkg/global/domain/entities"
)

// PullRequest is re-exported from gitforge.
type PullRequest = gitforgeEntities.PullRequest

// CloseReason explains why a group pull request is closed.
type CloseReason string

const (
	CloseReasonUpdateNoLongerPossible CloseReason = "update_no_longer_possible"
	CloseReasonDependenciesChanged    CloseReason = "dependencies_changed"
)

// PullRequestActionKind is one side effect decided for a group change.
type PullRequestActionKind string

const (
	PullRequestActionCreate PullRequestActionKind = "create"
	PullRequestActionUpdate PullRequestActionKind = "update"
	PullRequestActionClose  PullRequestActionKind = "close"
)

// PullRequestAction is a single decided side effect. Existing is set for
// update and close actions.
type PullRequestAction struct {
	Kind        PullRequestActionKind
	CloseReason CloseReason
	Existing    *ExistingPullRequest
}

// PullRequestPlan is the ordered list of actions decided for one group.
type PullRequestPlan struct {
	Group   string
	Actions []PullRequestAction
}

// Count returns how many actions of the given kind the plan holds.
func (p PullRequestPlan) Count(kind PullRequestActionKind) int {
	count := 0
	for _, action := range p.Actions {
		if action.Kind == kind {
			count++
		}
	}
	return count
}
