//go:build unit

package dryrun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/dryrun"
)

func TestDryRunPullRequestRepository(t *testing.T) {
	t.Parallel()

	t.Run("should perform no action and report no pull request", func(t *testing.T) {
		t.Parallel()
		// given
		repo := dryrun.NewDryRunPullRequestRepository(&entities.Settings{PackageManager: "go_modules"})
		group := entities.DependencyGroup{Name: "backend"}
		change := &entities.ChangeRecord{
			Group:        &group,
			UpdatedFiles: []entities.DependencyFile{{Name: "go.mod", Directory: "/"}},
		}
		existing := entities.ExistingPullRequest{Number: 3}
		ctx := context.Background()

		// when
		pr, createErr := repo.CreatePullRequest(ctx, change, "abc")
		updateErr := repo.UpdatePullRequest(ctx, change, "abc", existing)
		closeErr := repo.ClosePullRequest(ctx, existing, []string{"redis"}, entities.CloseReasonDependenciesChanged)

		// then
		require.NoError(t, createErr)
		require.NoError(t, updateErr)
		require.NoError(t, closeErr)
		assert.Nil(t, pr)
	})
}
