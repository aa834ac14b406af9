package commands

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// Reconcile is the interface for applying a group change to its pull requests.
type Reconcile interface {
	Execute(
		ctx context.Context,
		change *entities.ChangeRecord,
		existing []entities.ExistingPullRequest,
		baseCommit string,
	) (entities.PullRequestPlan, error)
}

// ReconcileCommand decides whether a group change creates, updates, supersedes
// or closes the group's pull request, and carries the decision out.
type ReconcileCommand struct {
	pullRequests repositories.PullRequestRepository
	errors       *ErrorHandler
}

// NewReconcileCommand creates a ReconcileCommand.
func NewReconcileCommand(
	pullRequests repositories.PullRequestRepository,
	errorHandler *ErrorHandler,
) *ReconcileCommand {
	return &ReconcileCommand{pullRequests: pullRequests, errors: errorHandler}
}

// DecidePullRequestActions is the pull request state machine for one group:
//   - nothing updated: close the open pull request as no longer possible;
//   - different dependency set: close it as changed and create a new one;
//   - same dependencies and versions: update it in place;
//   - same dependencies, new versions: create a new one that supersedes it.
//
// Without an open pull request a non-empty change is simply created.
func DecidePullRequestActions(
	change *entities.ChangeRecord,
	existing []entities.ExistingPullRequest,
) entities.PullRequestPlan {
	plan := entities.PullRequestPlan{}
	if change.Group != nil {
		plan.Group = change.Group.Name
	}
	current := latestPullRequest(existing)

	switch {
	case change.IsEmpty():
		if current != nil {
			plan.Actions = append(plan.Actions, closeAction(current, entities.CloseReasonUpdateNoLongerPossible))
		}
	case current == nil:
		plan.Actions = append(plan.Actions, entities.PullRequestAction{Kind: entities.PullRequestActionCreate})
	case !change.HasSameDependencies(*current):
		plan.Actions = append(plan.Actions,
			closeAction(current, entities.CloseReasonDependenciesChanged),
			entities.PullRequestAction{Kind: entities.PullRequestActionCreate},
		)
	case change.MatchesExistingPullRequest(*current):
		plan.Actions = append(plan.Actions, entities.PullRequestAction{
			Kind:     entities.PullRequestActionUpdate,
			Existing: current,
		})
	default:
		plan.Actions = append(plan.Actions, entities.PullRequestAction{Kind: entities.PullRequestActionCreate})
	}
	return plan
}

// Execute decides and applies the actions. Failures are reported as job
// errors and stop the remaining actions for this group; run-halting errors are
// returned unmodified.
func (it *ReconcileCommand) Execute(
	ctx context.Context,
	change *entities.ChangeRecord,
	existing []entities.ExistingPullRequest,
	baseCommit string,
) (entities.PullRequestPlan, error) {
	plan := DecidePullRequestActions(change, existing)
	if len(plan.Actions) == 0 {
		logger.Infof("No pull request changes for group %q", plan.Group)
		return plan, nil
	}

	for _, action := range plan.Actions {
		if err := it.apply(ctx, change, action, baseCommit); err != nil {
			return plan, it.errors.HandleJobError(ctx, err, change.Group)
		}
	}
	return plan, nil
}

func (it *ReconcileCommand) apply(
	ctx context.Context,
	change *entities.ChangeRecord,
	action entities.PullRequestAction,
	baseCommit string,
) error {
	switch action.Kind {
	case entities.PullRequestActionClose:
		logger.Infof("Closing pull request #%d (%s)", action.Existing.Number, action.CloseReason)
		return it.pullRequests.ClosePullRequest(ctx, *action.Existing, action.Existing.DependencyNames(), action.CloseReason)
	case entities.PullRequestActionUpdate:
		logger.Infof("Updating pull request #%d for %v", action.Existing.Number, change.DependencyNames())
		return it.pullRequests.UpdatePullRequest(ctx, change, baseCommit, *action.Existing)
	case entities.PullRequestActionCreate:
		pr, err := it.pullRequests.CreatePullRequest(ctx, change, baseCommit)
		if err != nil {
			return err
		}
		if pr != nil {
			logger.Infof("Created PR #%d: %s (%s)", pr.ID, pr.Title, pr.URL)
		}
		return nil
	default:
		return nil
	}
}

func latestPullRequest(existing []entities.ExistingPullRequest) *entities.ExistingPullRequest {
	var latest *entities.ExistingPullRequest
	for i := range existing {
		if latest == nil || existing[i].Number > latest.Number {
			latest = &existing[i]
		}
	}
	return latest
}

func closeAction(existing *entities.ExistingPullRequest, reason entities.CloseReason) entities.PullRequestAction {
	return entities.PullRequestAction{
		Kind:        entities.PullRequestActionClose,
		CloseReason: reason,
		Existing:    existing,
	}
}
