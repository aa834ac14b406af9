//go:build unit

package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories"
	"github.com/rios0rios0/groupupdate/test/infrastructure/repositorydoubles"
)

func TestEcosystemRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should return a registered ecosystem by package manager", func(t *testing.T) {
		t.Parallel()
		// given
		registry := infraRepos.NewEcosystemRegistry()
		spy := repositorydoubles.NewSpyEcosystemRepository()
		registry.Register(spy)

		// when
		ecosystem, err := registry.Get("spy")
		_, unknownErr := registry.Get("npm")

		// then
		require.NoError(t, err)
		assert.Same(t, spy, ecosystem)
		require.Error(t, unknownErr)
	})
}

func TestPullRequestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should build a repository from the registered factory", func(t *testing.T) {
		t.Parallel()
		// given
		registry := infraRepos.NewPullRequestRegistry()
		spy := &repositorydoubles.SpyPullRequestRepository{}
		registry.Register("spy", func(*entities.Settings) repositories.PullRequestRepository { return spy })

		// when
		repo, err := registry.Get("spy", &entities.Settings{})
		_, unknownErr := registry.Get("bitbucket", &entities.Settings{})

		// then
		require.NoError(t, err)
		assert.Same(t, spy, repo)
		require.Error(t, unknownErr)
		assert.Equal(t, []string{"spy"}, registry.Names())
	})
}

func TestRegisterProviders(t *testing.T) {
	t.Parallel()

	t.Run("should provide every registry with the built-in implementations", func(t *testing.T) {
		t.Parallel()
		// given
		container := dig.New()
		require.NoError(t, infraRepos.RegisterProviders(container))

		// when
		err := container.Invoke(func(
			ecosystems *infraRepos.EcosystemRegistry,
			pullRequests *infraRepos.PullRequestRegistry,
			reporter repositories.ErrorReporterRepository,
		) {
			// then
			assert.Equal(t, []string{"go_modules", "terraform"}, ecosystems.Names())
			assert.Equal(t, []string{"dryrun", "github"}, pullRequests.Names())
			assert.NotNil(t, reporter)
		})
		require.NoError(t, err)
	})
}
