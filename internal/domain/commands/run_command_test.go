//go:build unit

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories"
	"github.com/rios0rios0/groupupdate/test/domain/entitybuilders"
	"github.com/rios0rios0/groupupdate/test/infrastructure/repositorydoubles"
)

type runFixture struct {
	ecosystem    *repositorydoubles.SpyEcosystemRepository
	pullRequests *repositorydoubles.SpyPullRequestRepository
	reporter     *repositorydoubles.SpyErrorReporterRepository
	command      *commands.RunCommand
}

func newRunFixture() *runFixture {
	fixture := &runFixture{
		ecosystem:    repositorydoubles.NewSpyEcosystemRepository(),
		pullRequests: &repositorydoubles.SpyPullRequestRepository{},
		reporter:     &repositorydoubles.SpyErrorReporterRepository{},
	}
	ecosystems := infraRepos.NewEcosystemRegistry()
	ecosystems.Register(fixture.ecosystem)
	pullRequests := infraRepos.NewPullRequestRegistry()
	pullRequests.Register("spy", func(*entities.Settings) repositories.PullRequestRepository {
		return fixture.pullRequests
	})
	fixture.command = commands.NewRunCommand(ecosystems, pullRequests, fixture.reporter, entities.GroupContainment{})
	return fixture
}

func (f *runFixture) manifest(directory string, pairs ...string) {
	dir := entities.NormalizeDirectory(directory)
	f.ecosystem.FilesByDirectory[dir] = []entities.DependencyFile{repositorydoubles.Manifest(dir, pairs...)}
}

func runSettings(directories []string, groups ...entities.DependencyGroup) *entities.Settings {
	return &entities.Settings{
		JobID:            "job",
		PackageManager:   "spy",
		Directories:      directories,
		Repository:       entities.RepositoryConfig{Provider: "spy"},
		DependencyGroups: groups,
	}
}

func runOptions() commands.RunOptions {
	return commands.RunOptions{FileSystem: memfs.New(), BaseCommit: "abc123"}
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	t.Run("should raise one pull request for a group across directories", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "a", "1.0.0")
		fixture.manifest("/api", "a", "1.0.0", "b", "1.0.0")
		fixture.ecosystem.LatestVersions["a"] = "1.2.0"
		settings := runSettings([]string{"/", "/api"}, entitybuilders.NewDependencyGroupBuilder().WithName("all").BuildGroup())

		// when
		summary, err := fixture.command.Execute(context.Background(), settings, runOptions())

		// then
		require.NoError(t, err)
		require.Len(t, fixture.pullRequests.Created, 1)
		change := fixture.pullRequests.Created[0]
		require.Len(t, change.UpdatedDependencies, 2)
		assert.Equal(t, "/", change.UpdatedDependencies[0].Directory)
		assert.Equal(t, "/api", change.UpdatedDependencies[1].Directory)
		assert.Len(t, change.UpdatedFiles, 2)
		assert.Equal(t, []string{"abc123"}, fixture.pullRequests.BaseCommits)
		require.Len(t, summary.Plans, 1)
		assert.Equal(t, 1, summary.Plans[0].Count(entities.PullRequestActionCreate))
		assert.Equal(t, 3, summary.Handled)
		assert.Zero(t, summary.Errors)
	})

	t.Run("should report dependencies no group contains", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "aws-sdk", "1.0.0", "redis", "1.0.0")
		fixture.ecosystem.LatestVersions["aws-sdk"] = "1.1.0"
		settings := runSettings([]string{"/"}, entitybuilders.NewDependencyGroupBuilder().WithName("aws").WithPatterns("aws-*").BuildGroup())

		// when
		summary, err := fixture.command.Execute(context.Background(), settings, runOptions())

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"redis"}, summary.Ungrouped)
		assert.Equal(t, []string{"aws-sdk"}, fixture.ecosystem.Checked())
	})

	t.Run("should close the open pull request when nothing is left to update", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "a", "1.0.0")
		settings := runSettings([]string{"/"}, entitybuilders.NewDependencyGroupBuilder().WithName("all").BuildGroup())
		settings.ExistingGroupPullRequests = []entities.ExistingPullRequest{{
			Number:       8,
			GroupName:    "all",
			Dependencies: []entities.PullRequestDependency{{Name: "a", Version: "1.1.0", Directory: "/"}},
		}}

		// when
		_, err := fixture.command.Execute(context.Background(), settings, runOptions())

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"close"}, fixture.pullRequests.Calls)
		assert.Equal(t, entities.CloseReasonUpdateNoLongerPossible, fixture.pullRequests.Closed[0].Reason)
	})

	t.Run("should skip a directory that cannot be read and continue", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "a", "1.0.0")
		fixture.ecosystem.FetchErr["/broken"] = entities.NewUpdaterError(
			entities.ErrorTypeDependencyFileNotFound, errors.New("missing"), nil,
		)
		fixture.ecosystem.LatestVersions["a"] = "2.0.0"
		settings := runSettings([]string{"/", "/broken"}, entitybuilders.NewDependencyGroupBuilder().BuildGroup())

		// when
		summary, err := fixture.command.Execute(context.Background(), settings, runOptions())

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Errors)
		assert.Equal(t, []entities.ErrorType{entities.ErrorTypeDependencyFileNotFound}, fixture.reporter.ErrorTypes())
		assert.Len(t, fixture.pullRequests.Created, 1)
	})

	t.Run("should abort the run on a run-halting error in a group", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "a", "1.0.0", "b", "1.0.0", "c", "1.0.0")
		fixture.ecosystem.LatestVersions["a"] = "2.0.0"
		fixture.ecosystem.LatestVersions["b"] = "2.0.0"
		fixture.ecosystem.LatestVersions["c"] = "2.0.0"
		fixture.ecosystem.LatestErr["b"] = fmt.Errorf("registry: %w", entities.ErrUnauthorized)
		settings := runSettings([]string{"/"},
			entitybuilders.NewDependencyGroupBuilder().WithName("first").WithPatterns("a", "b").BuildGroup(),
			entitybuilders.NewDependencyGroupBuilder().WithName("second").WithPatterns("c").BuildGroup(),
		)

		// when
		_, err := fixture.command.Execute(context.Background(), settings, runOptions())

		// then
		require.ErrorIs(t, err, entities.ErrUnauthorized)
		assert.Equal(t, []string{"a", "b"}, fixture.ecosystem.Checked())
		assert.Empty(t, fixture.pullRequests.Calls)
		assert.Equal(t, []entities.ErrorType{entities.ErrorTypeUnauthorized}, fixture.reporter.ErrorTypes())
	})

	t.Run("should not touch pull requests for a discarded group change", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "a", "1.0.0")
		fixture.ecosystem.LatestVersions["a"] = "2.0.0"
		fixture.ecosystem.SideEffects["a"] = []entities.Dependency{{Name: "orphan", Version: "1.0.0"}}
		settings := runSettings([]string{"/"}, entitybuilders.NewDependencyGroupBuilder().BuildGroup())
		settings.Experiments = map[string]bool{entities.ExperimentDependencyChangeValidation: true}
		settings.ExistingGroupPullRequests = []entities.ExistingPullRequest{{Number: 2, GroupName: "group"}}

		// when
		summary, err := fixture.command.Execute(context.Background(), settings, runOptions())

		// then
		require.NoError(t, err)
		assert.Empty(t, summary.Plans)
		assert.Empty(t, fixture.pullRequests.Calls)
	})

	t.Run("should honour the provider override", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		fixture.manifest("/", "a", "1.0.0")
		settings := runSettings([]string{"/"})
		settings.Repository.Provider = "github"
		opts := runOptions()
		opts.ProviderName = "spy"

		// when
		_, err := fixture.command.Execute(context.Background(), settings, opts)

		// then
		require.NoError(t, err)
	})

	t.Run("should fail for an unknown package manager or provider", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()
		unknownEcosystem := runSettings([]string{"/"})
		unknownEcosystem.PackageManager = "npm"
		dryRun := runSettings([]string{"/"})
		dryRun.DryRun = true

		// when
		_, ecosystemErr := fixture.command.Execute(context.Background(), unknownEcosystem, runOptions())
		_, providerErr := fixture.command.Execute(context.Background(), dryRun, runOptions())

		// then
		require.ErrorContains(t, ecosystemErr, "unknown package manager")
		require.ErrorContains(t, providerErr, "unknown provider type")
	})

	t.Run("should fail without a file system", func(t *testing.T) {
		t.Parallel()
		// given
		fixture := newRunFixture()

		// when
		_, err := fixture.command.Execute(context.Background(), runSettings([]string{"/"}), commands.RunOptions{})

		// then
		require.Error(t, err)
	})
}
