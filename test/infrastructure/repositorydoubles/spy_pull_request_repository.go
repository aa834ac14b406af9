//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// ClosedPullRequest records one ClosePullRequest call.
type ClosedPullRequest struct {
	Number          int
	DependencyNames []string
	Reason          entities.CloseReason
}

// SpyPullRequestRepository implements repositories.PullRequestRepository as a configurable spy.
type SpyPullRequestRepository struct {
	// --- CreatePullRequest ---
	CreatedPR   *entities.PullRequest
	CreatePRErr error
	Created     []*entities.ChangeRecord
	BaseCommits []string

	// --- UpdatePullRequest ---
	UpdatePRErr error
	Updated     []int

	// --- ClosePullRequest ---
	ClosePRErr error
	Closed     []ClosedPullRequest

	// Calls lists "create", "update" and "close" in call order.
	Calls []string
}

var _ repositories.PullRequestRepository = (*SpyPullRequestRepository)(nil)

func (p *SpyPullRequestRepository) CreatePullRequest(
	_ context.Context,
	change *entities.ChangeRecord,
	baseCommit string,
) (*entities.PullRequest, error) {
	p.Calls = append(p.Calls, "create")
	p.Created = append(p.Created, change)
	p.BaseCommits = append(p.BaseCommits, baseCommit)
	return p.CreatedPR, p.CreatePRErr
}

func (p *SpyPullRequestRepository) UpdatePullRequest(
	_ context.Context,
	_ *entities.ChangeRecord,
	_ string,
	existing entities.ExistingPullRequest,
) error {
	p.Calls = append(p.Calls, "update")
	p.Updated = append(p.Updated, existing.Number)
	return p.UpdatePRErr
}

func (p *SpyPullRequestRepository) ClosePullRequest(
	_ context.Context,
	existing entities.ExistingPullRequest,
	dependencyNames []string,
	reason entities.CloseReason,
) error {
	p.Calls = append(p.Calls, "close")
	p.Closed = append(p.Closed, ClosedPullRequest{
		Number:          existing.Number,
		DependencyNames: dependencyNames,
		Reason:          reason,
	})
	return p.ClosePRErr
}
