//go:build unit

package commands_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/gomod"
	"github.com/rios0rios0/groupupdate/test/domain/entitybuilders"
	"github.com/rios0rios0/groupupdate/test/infrastructure/repositorydoubles"
)

const vendoredGoMod = `module github.com/acme/service

go 1.22

require (
	github.com/acme/lib v1.0.0
	github.com/acme/tools v0.3.0
)
`

const vendoredModules = `# github.com/acme/lib v1.0.0
## explicit
github.com/acme/lib
# github.com/acme/tools v0.3.0
## explicit
github.com/acme/tools
`

func TestGroupUpdateCommand_GoModules(t *testing.T) {
	t.Parallel()

	t.Run("should update the vendor manifest together with go.mod", func(t *testing.T) {
		t.Parallel()
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/github.com/acme/lib/@v/list":
				_, _ = w.Write([]byte("v1.0.0\nv1.1.0\n"))
			case "/github.com/acme/tools/@v/list":
				_, _ = w.Write([]byte("v0.3.0\n"))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		t.Cleanup(server.Close)

		ecosystem := gomod.NewGoModEcosystemRepositoryWithProxy(gomod.NewProxyClientWithHTTP(server.URL, server.Client()))
		files := []entities.DependencyFile{
			{Name: "go.mod", Directory: "/", Content: vendoredGoMod, Operation: entities.FileOperationUpdate},
			{Name: "vendor/modules.txt", Directory: "/", Content: vendoredModules, Operation: entities.FileOperationUpdate, Vendored: true},
		}
		deps, err := ecosystem.ParseFiles(context.Background(), files)
		require.NoError(t, err)

		settings := &entities.Settings{JobID: "job", PackageManager: "go_modules"}
		reporter := &repositorydoubles.SpyErrorReporterRepository{}
		group := entitybuilders.NewDependencyGroupBuilder().WithName("acme").BuildGroup()
		command := commands.NewGroupUpdateCommand(
			ecosystem,
			reporter,
			commands.NewErrorHandler(reporter, settings),
			commands.NewHandledDependencies(),
			entities.NewSpecificityScorer([]entities.DependencyGroup{group}, nil),
			settings,
		)

		// when
		change, execErr := command.Execute(context.Background(), commands.GroupUpdateInput{
			Group:        group,
			Directory:    "/",
			Dependencies: deps,
			Files:        files,
		})

		// then
		require.NoError(t, execErr)
		require.NotNil(t, change)
		assert.Empty(t, reporter.ErrorTypes())
		assert.Equal(t, []string{"github.com/acme/lib"}, names(change))
		require.Len(t, change.UpdatedFiles, 2)
		assert.Equal(t, "/go.mod", change.UpdatedFiles[0].Path())
		assert.Contains(t, change.UpdatedFiles[0].Content, "github.com/acme/lib v1.1.0")
		assert.Equal(t, "/vendor/modules.txt", change.UpdatedFiles[1].Path())
		assert.True(t, change.UpdatedFiles[1].Vendored)
		assert.Contains(t, change.UpdatedFiles[1].Content, "# github.com/acme/lib v1.1.0\n")
		assert.Contains(t, change.UpdatedFiles[1].Content, "# github.com/acme/tools v0.3.0\n")
	})
}
