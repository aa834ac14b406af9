//go:build unit

package message_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/message"
)

func change(group *entities.DependencyGroup, pairs ...string) *entities.ChangeRecord {
	record := &entities.ChangeRecord{Group: group}
	for i := 0; i+2 < len(pairs); i += 3 {
		dep := entities.Dependency{Name: pairs[i], Version: pairs[i+1]}.WithVersion(pairs[i+2], nil)
		record.UpdatedDependencies = append(record.UpdatedDependencies, entities.UpdatedDependency{
			Dependency: dep,
			Directory:  "/",
		})
	}
	return record
}

func TestTitle(t *testing.T) {
	t.Parallel()

	group := &entities.DependencyGroup{Name: "backend"}

	tests := []struct {
		name     string
		change   *entities.ChangeRecord
		expected string
	}{
		{
			name:     "should describe a single ungrouped update",
			change:   change(nil, "redis", "1.0.0", "2.0.0"),
			expected: "chore(deps): upgrade redis from 1.0.0 to 2.0.0",
		},
		{
			name:     "should name the only dependency of a group",
			change:   change(group, "redis", "1.0.0", "2.0.0"),
			expected: "chore(deps): upgrade redis in the backend group",
		},
		{
			name:     "should count the updates of a group",
			change:   change(group, "redis", "1.0.0", "2.0.0", "mongo", "3.0.0", "4.0.0"),
			expected: "chore(deps): upgrade the backend group with 2 updates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// when
			title := message.Title(tt.change)

			// then
			assert.Equal(t, tt.expected, title)
		})
	}
}

func TestBranchName(t *testing.T) {
	t.Parallel()

	group := &entities.DependencyGroup{Name: "backend services"}

	t.Run("should be stable regardless of dependency order", func(t *testing.T) {
		t.Parallel()
		// given
		first := change(group, "redis", "1.0.0", "2.0.0", "mongo", "3.0.0", "4.0.0")
		second := change(group, "mongo", "3.0.0", "4.0.0", "redis", "1.0.0", "2.0.0")

		// when
		a := message.BranchName(first, "go_modules")
		b := message.BranchName(second, "go_modules")

		// then
		assert.Equal(t, a, b)
		assert.True(t, strings.HasPrefix(a, "groupupdate/go_modules/backend-services-"))
		assert.Len(t, strings.TrimPrefix(a, "groupupdate/go_modules/backend-services-"), 10)
	})

	t.Run("should change when a version changes", func(t *testing.T) {
		t.Parallel()
		// when
		a := message.BranchName(change(group, "redis", "1.0.0", "2.0.0"), "go_modules")
		b := message.BranchName(change(group, "redis", "1.0.0", "2.1.0"), "go_modules")

		// then
		assert.NotEqual(t, a, b)
	})
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("should render a table of updates and the notices", func(t *testing.T) {
		t.Parallel()
		// given
		record := change(&entities.DependencyGroup{Name: "backend"}, "redis", "1.0.0", "2.0.0")
		record.Notices = []entities.Notice{{Mode: entities.NoticeModeInfo, Title: "mongo is updated by group db", Description: "left out"}}

		// when
		msg := message.Build(record, "spy")

		// then
		assert.Contains(t, msg.Body, "| redis | 1.0.0 | 2.0.0 | / |")
		assert.Contains(t, msg.Body, "## Notices")
		assert.Contains(t, msg.Body, "mongo is updated by group db")
		assert.Contains(t, msg.CommitMessage, "- redis from 1.0.0 to 2.0.0 in /")
		assert.Equal(t, msg.Title, message.Title(record))
	})
}

func TestCloseComment(t *testing.T) {
	t.Parallel()

	t.Run("should explain each close reason", func(t *testing.T) {
		t.Parallel()
		// when
		changed := message.CloseComment([]string{"redis", "mongo"}, entities.CloseReasonDependenciesChanged)
		impossible := message.CloseComment([]string{"redis"}, entities.CloseReasonUpdateNoLongerPossible)

		// then
		assert.Contains(t, changed, "redis, mongo")
		assert.Contains(t, changed, "a new pull request replaces this one")
		assert.Equal(t, "Closing: an update of redis is no longer possible.", impossible)
	})
}
