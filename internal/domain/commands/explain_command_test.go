//go:build unit

package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/test/domain/entitybuilders"
)

func TestExplainCommand(t *testing.T) {
	t.Parallel()

	settings := &entities.Settings{
		PackageManager: "spy",
		DependencyGroups: []entities.DependencyGroup{
			entitybuilders.NewDependencyGroupBuilder().WithName("everything").WithPatterns("*").BuildGroup(),
			entitybuilders.NewDependencyGroupBuilder().WithName("aws").WithPatterns("aws-*").BuildGroup(),
			entitybuilders.NewDependencyGroupBuilder().WithName("api-only").WithMember("redis", "/api").BuildGroup(),
		},
	}
	command := commands.NewExplainCommand(entities.GroupContainment{})

	t.Run("should pick the most specific pattern group", func(t *testing.T) {
		t.Parallel()
		// when
		explanation := command.Execute(settings, "aws-sdk", "")

		// then
		assert.Equal(t, "aws", explanation.Winner)
		assert.Equal(t, "/", explanation.Directory)
		assert.Equal(t, []entities.GroupScore{
			{Group: "everything", Score: 1, Contained: true},
			{Group: "aws", Score: 90, Contained: true},
			{Group: "api-only", Score: 500, Contained: false},
		}, explanation.Scores)
	})

	t.Run("should fall back to the catch-all group", func(t *testing.T) {
		t.Parallel()
		// when
		explanation := command.Execute(settings, "mongo", "/")

		// then
		assert.Equal(t, "everything", explanation.Winner)
	})

	t.Run("should prefer an explicit member in its directory", func(t *testing.T) {
		t.Parallel()
		// when
		inAPI := command.Execute(settings, "redis", "api")
		elsewhere := command.Execute(settings, "redis", "/web")

		// then
		assert.Equal(t, "api-only", inAPI.Winner)
		assert.Equal(t, "everything", elsewhere.Winner)
	})

	t.Run("should report no winner when no group contains the dependency", func(t *testing.T) {
		t.Parallel()
		// given
		narrow := &entities.Settings{DependencyGroups: []entities.DependencyGroup{
			entitybuilders.NewDependencyGroupBuilder().WithName("aws").WithPatterns("aws-*").BuildGroup(),
		}}

		// when
		explanation := command.Execute(narrow, "redis", "/")

		// then
		assert.Empty(t, explanation.Winner)
	})
}
