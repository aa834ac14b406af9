package repositories

import (
	"context"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// PullRequestRepository persists group changes as pull requests on a Git hosting service.
type PullRequestRepository interface {
	CreatePullRequest(ctx context.Context, change *entities.ChangeRecord, baseCommit string) (*entities.PullRequest, error)
	UpdatePullRequest(
		ctx context.Context,
		change *entities.ChangeRecord,
		baseCommit string,
		existing entities.ExistingPullRequest,
	) error
	ClosePullRequest(
		ctx context.Context,
		existing entities.ExistingPullRequest,
		dependencyNames []string,
		reason entities.CloseReason,
	) error
}

// ErrorReporterRepository receives classified errors and metrics.
type ErrorReporterRepository interface {
	RecordUpdateJobError(ctx context.Context, errorType entities.ErrorType, details map[string]any)
	RecordUpdateJobUnknownError(ctx context.Context, errorType entities.ErrorType, details map[string]any)
	IncrementMetric(ctx context.Context, metric string, tags map[string]string)
}
