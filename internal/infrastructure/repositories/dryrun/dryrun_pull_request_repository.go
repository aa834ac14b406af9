package dryrun

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/message"
)

// DryRunPullRequestRepository logs the pull request actions instead of performing them.
type DryRunPullRequestRepository struct {
	packageManager string
}

// NewDryRunPullRequestRepository creates a logging-only pull request repository.
func NewDryRunPullRequestRepository(settings *entities.Settings) repositories.PullRequestRepository {
	return &DryRunPullRequestRepository{packageManager: settings.PackageManager}
}

func (p *DryRunPullRequestRepository) CreatePullRequest(
	_ context.Context,
	change *entities.ChangeRecord,
	baseCommit string,
) (*entities.PullRequest, error) {
	msg := message.Build(change, p.packageManager)
	logger.WithFields(logger.Fields{
		"branch":      msg.BranchName,
		"base_commit": baseCommit,
		"files":       filePaths(change),
	}).Infof("[DRY RUN] Would create PR: %s", msg.Title)
	return nil, nil //nolint:nilnil // nothing was created
}

func (p *DryRunPullRequestRepository) UpdatePullRequest(
	_ context.Context,
	change *entities.ChangeRecord,
	baseCommit string,
	existing entities.ExistingPullRequest,
) error {
	logger.WithFields(logger.Fields{
		"base_commit": baseCommit,
		"files":       filePaths(change),
	}).Infof("[DRY RUN] Would update PR #%d: %s", existing.Number, message.Title(change))
	return nil
}

func (p *DryRunPullRequestRepository) ClosePullRequest(
	_ context.Context,
	existing entities.ExistingPullRequest,
	dependencyNames []string,
	reason entities.CloseReason,
) error {
	logger.Infof("[DRY RUN] Would close PR #%d (%s): %s", existing.Number, reason, message.CloseComment(dependencyNames, reason))
	return nil
}

func filePaths(change *entities.ChangeRecord) string {
	paths := make([]string, 0, len(change.UpdatedFiles))
	for _, file := range change.UpdatedFiles {
		paths = append(paths, file.Path())
	}
	return strings.Join(paths, ",")
}
