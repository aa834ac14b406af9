//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/test/domain/entitybuilders"
)

func file(directory, name, content string) entities.DependencyFile {
	return entities.DependencyFile{
		Name:      name,
		Directory: directory,
		Content:   content,
		Operation: entities.FileOperationUpdate,
	}
}

func changeOf(files []entities.DependencyFile, deps ...entities.Dependency) *entities.ChangeRecord {
	updated := make([]entities.UpdatedDependency, 0, len(deps))
	for _, dep := range deps {
		updated = append(updated, entities.UpdatedDependency{Dependency: dep})
	}
	return &entities.ChangeRecord{UpdatedDependencies: updated, UpdatedFiles: files}
}

func TestChangeBatch(t *testing.T) {
	t.Parallel()

	redis := entitybuilders.NewDependencyBuilder().WithName("redis").WithVersion("2.0.0").WithPreviousVersion("1.0.0").BuildDependency()
	mongo := entitybuilders.NewDependencyBuilder().WithName("mongo").WithVersion("4.0.0").WithPreviousVersion("3.0.0").BuildDependency()

	t.Run("should return the initial files for a directory", func(t *testing.T) {
		t.Parallel()
		// given
		batch := entities.NewChangeBatch([]entities.DependencyFile{
			file("/", "go.mod", "a"),
			file("/api", "go.mod", "b"),
		})

		// when
		files, err := batch.CurrentFiles(".")

		// then
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "a", files[0].Content)
		assert.Empty(t, batch.UpdatedFiles())
	})

	t.Run("should fail when no file is tracked for the directory", func(t *testing.T) {
		t.Parallel()
		// given
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/", "go.mod", "a")})

		// when
		_, err := batch.CurrentFiles("/missing")

		// then
		require.ErrorIs(t, err, entities.ErrNoFilesInDirectory)
	})

	t.Run("should keep vendored files as an unchanged baseline until an update replaces them", func(t *testing.T) {
		t.Parallel()
		// given
		vendored := file("/", "vendor/modules.txt", "old")
		vendored.Vendored = true
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/", "go.mod", "a"), vendored})

		// when
		before, err := batch.CurrentFiles("/")
		updatedBefore := batch.UpdatedFiles()
		updatedVendored := vendored
		updatedVendored.Content = "new"
		batch.Merge(changeOf([]entities.DependencyFile{updatedVendored}, redis), "/")
		after, afterErr := batch.CurrentFiles("/")

		// then
		require.NoError(t, err)
		require.Len(t, before, 2)
		assert.Equal(t, "go.mod", before[0].Name)
		assert.Equal(t, "old", before[1].Content)
		assert.Empty(t, updatedBefore)
		assert.Equal(t, 1, batch.TrackedFiles())
		require.NoError(t, afterErr)
		assert.Equal(t, "new", after[1].Content)
		require.Len(t, batch.UpdatedFiles(), 1)
		assert.Equal(t, "new", batch.UpdatedFiles()[0].Content)
	})

	t.Run("should keep one entry with a change count of 2 when the same path is merged twice", func(t *testing.T) {
		t.Parallel()
		// given
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/", "go.mod", "v0")})

		// when
		batch.Merge(changeOf([]entities.DependencyFile{file("/", "go.mod", "v1")}, redis), "/")
		batch.Merge(changeOf([]entities.DependencyFile{file("/", "go.mod", "v2")}, mongo), "/")

		// then
		updated := batch.UpdatedFiles()
		require.Len(t, updated, 1)
		assert.Equal(t, "v2", updated[0].Content)
		assert.Equal(t, 2, batch.ChangeCount("/go.mod"))
		current, err := batch.CurrentFiles("/")
		require.NoError(t, err)
		assert.Equal(t, "v2", current[0].Content)
	})

	t.Run("should count a new path once on first merge", func(t *testing.T) {
		t.Parallel()
		// given
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/", "go.mod", "v0")})

		// when
		batch.Merge(changeOf([]entities.DependencyFile{file("/", "go.sum", "sum")}, redis), "/")

		// then
		assert.Equal(t, 1, batch.ChangeCount("/go.sum"))
		assert.Equal(t, 0, batch.ChangeCount("/go.mod"))
		assert.Equal(t, 2, batch.TrackedFiles())
	})

	t.Run("should annotate merged dependencies with the directory", func(t *testing.T) {
		t.Parallel()
		// given
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/api", "go.mod", "v0")})

		// when
		batch.Merge(changeOf([]entities.DependencyFile{file("/api", "go.mod", "v1")}, redis), "api")

		// then
		deps := batch.UpdatedDependencies()
		require.Len(t, deps, 1)
		assert.Equal(t, "/api", deps[0].Directory)
		assert.Equal(t, entities.SelectedByChecker, deps[0].Reason)
		assert.Equal(t, "1.0.0", deps[0].PreviousVersion)
	})

	t.Run("should keep duplicate dependency records", func(t *testing.T) {
		t.Parallel()
		// given
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/", "go.mod", "v0")})

		// when
		batch.Merge(changeOf([]entities.DependencyFile{file("/", "go.mod", "v1")}, redis, mongo), "/")
		batch.AddUpdatedDependency(mongo, "/")

		// then
		deps := batch.UpdatedDependencies()
		require.Len(t, deps, 3)
		assert.Equal(t, entities.SelectedAsSideEffect, deps[2].Reason)
	})

	t.Run("should drop dependencies a more specific group claims when enforcement is on", func(t *testing.T) {
		t.Parallel()
		// given
		everything := entitybuilders.NewDependencyGroupBuilder().WithName("everything").WithPatterns("*").BuildGroup()
		redisGroup := entitybuilders.NewDependencyGroupBuilder().WithName("redis").WithPatterns("red*").BuildGroup()
		scorer := entities.NewSpecificityScorer([]entities.DependencyGroup{everything, redisGroup}, nil)
		var dropped []string
		batch := entities.NewChangeBatch(
			[]entities.DependencyFile{file("/", "go.mod", "v0")},
			entities.WithMembershipEnforcement(entities.MembershipEnforcement{
				Scorer: scorer,
				Group:  everything,
				OnDropped: func(dep entities.UpdatedDependency, winner string) {
					dropped = append(dropped, dep.Name+"->"+winner)
				},
			}),
		)

		// when
		batch.Merge(changeOf([]entities.DependencyFile{file("/", "go.mod", "v1")}, redis, mongo), "/")

		// then
		deps := batch.UpdatedDependencies()
		require.Len(t, deps, 1)
		assert.Equal(t, "mongo", deps[0].Name)
		assert.Equal(t, []string{"redis->redis"}, dropped)
	})

	t.Run("should finalize into a grouped change record", func(t *testing.T) {
		t.Parallel()
		// given
		group := entitybuilders.NewDependencyGroupBuilder().WithName("backend").BuildGroup()
		batch := entities.NewChangeBatch([]entities.DependencyFile{file("/", "go.mod", "v0")})
		batch.Merge(changeOf([]entities.DependencyFile{file("/", "go.mod", "v1")}, redis), "/")
		notices := []entities.Notice{{Mode: entities.NoticeModeInfo, Title: "note"}}

		// when
		change := batch.Finalize(&group, notices)

		// then
		assert.True(t, change.IsGrouped())
		assert.False(t, change.IsEmpty())
		assert.Equal(t, []string{"redis"}, change.DependencyNames())
		assert.Equal(t, notices, change.Notices)
	})
}

func TestMergeDirectoryChanges(t *testing.T) {
	t.Parallel()

	redis := entitybuilders.NewDependencyBuilder().WithName("redis").WithVersion("2.0.0").WithPreviousVersion("1.0.0").BuildDependency()

	t.Run("should keep the same dependency once per directory", func(t *testing.T) {
		t.Parallel()
		// given
		group := entitybuilders.NewDependencyGroupBuilder().BuildGroup()
		changes := []entities.DirectoryChange{
			{Directory: "/", Change: changeOf([]entities.DependencyFile{file("/", "go.mod", "a")}, redis, redis)},
			{Directory: "/api", Change: changeOf([]entities.DependencyFile{file("/api", "go.mod", "b")}, redis)},
			{Directory: "/empty"},
		}

		// when
		merged := entities.MergeDirectoryChanges(changes, &group)

		// then
		require.Len(t, merged.UpdatedDependencies, 2)
		assert.Equal(t, "/", merged.UpdatedDependencies[0].Directory)
		assert.Equal(t, "/api", merged.UpdatedDependencies[1].Directory)
		assert.Len(t, merged.UpdatedFiles, 2)
		assert.Same(t, &group, merged.Group)
	})

	t.Run("should keep the first file for a repeated path", func(t *testing.T) {
		t.Parallel()
		// given
		changes := []entities.DirectoryChange{
			{Directory: "/", Change: changeOf([]entities.DependencyFile{file("/", "go.work", "first")}, redis)},
			{Directory: "/api", Change: changeOf([]entities.DependencyFile{file("/", "go.work", "second")})},
		}

		// when
		merged := entities.MergeDirectoryChanges(changes, nil)

		// then
		require.Len(t, merged.UpdatedFiles, 1)
		assert.Equal(t, "first", merged.UpdatedFiles[0].Content)
	})
}
