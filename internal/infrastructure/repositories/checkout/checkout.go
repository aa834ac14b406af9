package checkout

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
)

// Checkout is a local source tree the job reads dependency files from.
type Checkout struct {
	FileSystem billy.Filesystem
	BaseCommit string // Empty when the tree is not a git repository
}

// Open opens a local checkout. Inside a git repository the worktree file
// system and the HEAD commit are used; otherwise a plain directory is read.
func Open(localPath string) (*Checkout, error) {
	repo, err := git.PlainOpenWithOptions(localPath, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return &Checkout{FileSystem: osfs.New(localPath)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %q: %w", localPath, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree at %q: %w", localPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD at %q: %w", localPath, err)
	}

	return &Checkout{FileSystem: worktree.Filesystem, BaseCommit: head.Hash().String()}, nil
}
