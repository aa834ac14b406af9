package terraform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// TagLister lists the tags of a module source repository.
type TagLister interface {
	ListTags(ctx context.Context, source string) ([]string, error)
}

// GitTagLister lists tags with an in-memory "git ls-remote".
type GitTagLister struct {
	token string
}

// NewGitTagLister creates a lister; a non-empty token is sent as HTTPS basic auth.
func NewGitTagLister(token string) *GitTagLister {
	return &GitTagLister{token: token}
}

func (l *GitTagLister) ListTags(ctx context.Context, source string) ([]string, error) {
	url := remoteURL(source)
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	opts := &git.ListOptions{}
	if l.token != "" && strings.HasPrefix(url, "https://") {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: l.token}
	}

	refs, err := remote.ListContext(ctx, opts)
	if err != nil {
		return nil, classifyRemoteError(url, err)
	}

	var tags []string
	for _, ref := range refs {
		if ref.Name().IsTag() {
			tags = append(tags, ref.Name().Short())
		}
	}
	return tags, nil
}

func classifyRemoteError(url string, err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return entities.NewUpdaterError(
			entities.ErrorTypePrivateSourceAuthenticationFailed,
			err,
			map[string]any{"source": url},
		)
	case errors.Is(err, transport.ErrRepositoryNotFound), errors.Is(err, transport.ErrEmptyRemoteRepository):
		return entities.NewUpdaterError(
			entities.ErrorTypeGitDependenciesNotReachable,
			err,
			map[string]any{"dependency-urls": []string{url}},
		)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("listing tags of %s timed out: %w", url, err)
	default:
		return fmt.Errorf("failed to list tags of %s: %w", url, err)
	}
}
