//go:build unit

package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/controllers"
	"github.com/rios0rios0/groupupdate/test/domain/commanddoubles"
)

type flagged interface {
	AddFlags(cmd *cobra.Command)
}

func newCommand(t *testing.T, controller flagged, job string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "groupupdate.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(job), 0o600))

	//nolint:exhaustruct // test command
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	controller.AddFlags(cmd)
	require.NoError(t, cmd.Flags().Set("config", configPath))

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func TestExplainController(t *testing.T) {
	t.Parallel()

	t.Run("should print the scores and mark the winning group", func(t *testing.T) {
		t.Parallel()
		// given
		stub := &commanddoubles.StubExplainCommand{Explanation: commands.Explanation{
			Dependency: "aws-sdk",
			Directory:  "/api",
			Scores: []entities.GroupScore{
				{Group: "everything", Score: 1, Contained: true},
				{Group: "aws", Score: 90, Contained: true},
				{Group: "web", Contained: false},
			},
			Winner: "aws",
		}}
		controller := controllers.NewExplainController(stub)
		cmd, out := newCommand(t, controller, "package-manager: go_modules\n")
		require.NoError(t, cmd.Flags().Set("directory", "/api"))

		// when
		controller.Execute(cmd, []string{"aws-sdk"})

		// then
		assert.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, "aws-sdk", stub.LastDependency)
		assert.Equal(t, "/api", stub.LastDirectory)
		assert.Contains(t, out.String(), "aws-sdk in /api")
		assert.Regexp(t, `\* aws\s+90`, out.String())
		assert.Regexp(t, `  web\s+-`, out.String())
	})

	t.Run("should say when no group claims the dependency", func(t *testing.T) {
		t.Parallel()
		// given
		stub := &commanddoubles.StubExplainCommand{Explanation: commands.Explanation{Dependency: "redis", Directory: "/"}}
		controller := controllers.NewExplainController(stub)
		cmd, out := newCommand(t, controller, "package-manager: go_modules\n")

		// when
		controller.Execute(cmd, []string{"redis"})

		// then
		assert.Contains(t, out.String(), "no group claims this dependency")
	})

	t.Run("should not run without a dependency name", func(t *testing.T) {
		t.Parallel()
		// given
		stub := &commanddoubles.StubExplainCommand{}
		controller := controllers.NewExplainController(stub)
		cmd, _ := newCommand(t, controller, "package-manager: go_modules\n")

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Zero(t, stub.ExecuteCallCount)
	})
}

func TestRunController(t *testing.T) {
	t.Parallel()

	t.Run("should run the job against the local checkout", func(t *testing.T) {
		t.Parallel()
		// given
		checkoutDir := t.TempDir()
		stub := &commanddoubles.StubRunCommand{}
		controller := controllers.NewRunController(stub)
		cmd, _ := newCommand(t, controller, "package-manager: go_modules\nrepository:\n  local-path: "+checkoutDir+"\n")
		require.NoError(t, cmd.Flags().Set("dry-run", "true"))
		require.NoError(t, cmd.Flags().Set("provider", "dryrun"))

		// when
		controller.Execute(cmd, nil)

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.True(t, stub.LastSettings.DryRun)
		assert.Equal(t, "dryrun", stub.LastOpts.ProviderName)
		assert.NotNil(t, stub.LastOpts.FileSystem)
		assert.Empty(t, stub.LastOpts.BaseCommit)
	})

	t.Run("should not run when the job file is invalid", func(t *testing.T) {
		t.Parallel()
		// given
		stub := &commanddoubles.StubRunCommand{}
		controller := controllers.NewRunController(stub)
		cmd, _ := newCommand(t, controller, "package-manager: [")

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Zero(t, stub.ExecuteCallCount)
	})
}
