package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/message"
)

const (
	providerName  = "github"
	blobMode      = "100644"
	blobType      = "blob"
	defaultBranch = "main"
)

// GitHubPullRequestRepository implements repositories.PullRequestRepository for GitHub.
// Changes are committed through the Git data API, so no local clone is needed.
type GitHubPullRequestRepository struct {
	client         *gh.Client
	repo           entities.Repository
	packageManager string
}

// NewGitHubPullRequestRepository creates a GitHub repository for the job's target.
func NewGitHubPullRequestRepository(settings *entities.Settings) repositories.PullRequestRepository {
	client := gh.NewClient(nil)
	if settings.Repository.Token != "" {
		client = client.WithAuthToken(settings.Repository.Token)
	}
	return NewGitHubPullRequestRepositoryWithClient(client, settings)
}

// NewGitHubPullRequestRepositoryWithClient creates the repository around an existing client.
func NewGitHubPullRequestRepositoryWithClient(
	client *gh.Client,
	settings *entities.Settings,
) repositories.PullRequestRepository {
	repo := settings.Repo()
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = defaultBranch
	}
	repo.ProviderName = providerName
	return &GitHubPullRequestRepository{client: client, repo: repo, packageManager: settings.PackageManager}
}

// CreatePullRequest commits the change on a new branch and opens a pull request.
func (p *GitHubPullRequestRepository) CreatePullRequest(
	ctx context.Context,
	change *entities.ChangeRecord,
	baseCommit string,
) (*entities.PullRequest, error) {
	msg := message.Build(change, p.packageManager)

	commitSHA, err := p.commitChanges(ctx, change, msg.CommitMessage, baseCommit)
	if err != nil {
		return nil, err
	}

	branchRef := "refs/heads/" + msg.BranchName
	if _, _, err = p.client.Git.CreateRef(ctx, p.repo.Organization, p.repo.Name, &gh.Reference{
		Ref:    &branchRef,
		Object: &gh.GitObject{SHA: &commitSHA},
	}); err != nil {
		return nil, p.wrap("failed to create branch", err)
	}

	targetBranch := strings.TrimPrefix(p.repo.DefaultBranch, "refs/heads/")
	maintainerCanModify := true
	pr, _, err := p.client.PullRequests.Create(ctx, p.repo.Organization, p.repo.Name, &gh.NewPullRequest{
		Title:               &msg.Title,
		Head:                &msg.BranchName,
		Base:                &targetBranch,
		Body:                &msg.Body,
		MaintainerCanModify: &maintainerCanModify,
	})
	if err != nil {
		return nil, p.wrap("failed to create pull request", err)
	}

	return &entities.PullRequest{
		ID:     pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Status: pr.GetState(),
	}, nil
}

// UpdatePullRequest rebuilds the pull request's branch on top of baseCommit.
func (p *GitHubPullRequestRepository) UpdatePullRequest(
	ctx context.Context,
	change *entities.ChangeRecord,
	baseCommit string,
	existing entities.ExistingPullRequest,
) error {
	pr, _, err := p.client.PullRequests.Get(ctx, p.repo.Organization, p.repo.Name, existing.Number)
	if err != nil {
		return p.wrap(fmt.Sprintf("failed to get pull request #%d", existing.Number), err)
	}
	if pr.GetState() != "open" {
		logger.Infof("Pull request #%d is %s, nothing to update", existing.Number, pr.GetState())
		return nil
	}

	msg := message.Build(change, p.packageManager)
	commitSHA, err := p.commitChanges(ctx, change, msg.CommitMessage, baseCommit)
	if err != nil {
		return err
	}

	branchRef := "refs/heads/" + pr.GetHead().GetRef()
	if _, _, err = p.client.Git.UpdateRef(ctx, p.repo.Organization, p.repo.Name, &gh.Reference{
		Ref:    &branchRef,
		Object: &gh.GitObject{SHA: &commitSHA},
	}, true); err != nil {
		return p.wrap("failed to force-update branch", err)
	}

	_, _, err = p.client.PullRequests.Edit(ctx, p.repo.Organization, p.repo.Name, existing.Number, &gh.PullRequest{
		Title: &msg.Title,
		Body:  &msg.Body,
	})
	if err != nil {
		return p.wrap(fmt.Sprintf("failed to edit pull request #%d", existing.Number), err)
	}
	return nil
}

// ClosePullRequest comments with the reason and closes the pull request.
func (p *GitHubPullRequestRepository) ClosePullRequest(
	ctx context.Context,
	existing entities.ExistingPullRequest,
	dependencyNames []string,
	reason entities.CloseReason,
) error {
	comment := message.CloseComment(dependencyNames, reason)
	if _, _, err := p.client.Issues.CreateComment(ctx, p.repo.Organization, p.repo.Name, existing.Number, &gh.IssueComment{
		Body: &comment,
	}); err != nil {
		logger.Warnf("Failed to comment on pull request #%d: %v", existing.Number, err)
	}

	state := "closed"
	if _, _, err := p.client.PullRequests.Edit(ctx, p.repo.Organization, p.repo.Name, existing.Number, &gh.PullRequest{
		State: &state,
	}); err != nil {
		return p.wrap(fmt.Sprintf("failed to close pull request #%d", existing.Number), err)
	}
	return nil
}

// commitChanges creates a tree and a commit holding the change's files on top
// of baseCommit (or the tip of the default branch when empty).
func (p *GitHubPullRequestRepository) commitChanges(
	ctx context.Context,
	change *entities.ChangeRecord,
	commitMessage string,
	baseCommit string,
) (string, error) {
	owner, repoName := p.repo.Organization, p.repo.Name

	if baseCommit == "" {
		baseRef, _, err := p.client.Git.GetRef(
			ctx, owner, repoName, "refs/heads/"+strings.TrimPrefix(p.repo.DefaultBranch, "refs/heads/"),
		)
		if err != nil {
			return "", p.wrap("failed to get base branch ref", err)
		}
		baseCommit = baseRef.Object.GetSHA()
	}

	parent, _, err := p.client.Git.GetCommit(ctx, owner, repoName, baseCommit)
	if err != nil {
		return "", p.wrap("failed to get base commit", err)
	}

	entries := make([]*gh.TreeEntry, 0, len(change.UpdatedFiles))
	for _, file := range change.UpdatedFiles {
		filePath := strings.TrimPrefix(file.Path(), "/")
		mode := blobMode
		entryType := blobType
		entry := &gh.TreeEntry{Path: &filePath, Mode: &mode, Type: &entryType}
		if file.Operation != entities.FileOperationDelete {
			content := file.Content
			entry.Content = &content
		}
		entries = append(entries, entry)
	}

	tree, _, err := p.client.Git.CreateTree(ctx, owner, repoName, parent.Tree.GetSHA(), entries)
	if err != nil {
		return "", p.wrap("failed to create tree", err)
	}

	commit, _, err := p.client.Git.CreateCommit(ctx, owner, repoName, &gh.Commit{
		Message: &commitMessage,
		Tree:    tree,
		Parents: []*gh.Commit{{SHA: &baseCommit}},
	}, nil)
	if err != nil {
		return "", p.wrap("failed to create commit", err)
	}
	return commit.GetSHA(), nil
}

// wrap marks a rejected token as run-halting; everything else is recoverable.
func (p *GitHubPullRequestRepository) wrap(action string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s on %s/%s: %w: %w", action, p.repo.Organization, p.repo.Name, entities.ErrUnauthorized, err)
	}
	return fmt.Errorf("%s on %s/%s: %w", action, p.repo.Organization, p.repo.Name, err)
}
