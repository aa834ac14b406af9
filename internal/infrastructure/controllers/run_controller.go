package controllers

import (
	"context"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/checkout"
)

// RunController handles the "run" subcommand.
type RunController struct {
	command commands.Run
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Run a grouped dependency update job",
		Long: `Read the job file, update every dependency group in every configured
directory, and create, update or close one pull request per group.

Dependencies are read from the repository's local checkout
(repository.local-path, default: the current directory).`,
	}
}

// Execute runs one update job. A run-halting error exits with status 1.
func (it *RunController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		settings.DryRun = true
	}
	providerOverride, _ := cmd.Flags().GetString("provider")

	localPath := settings.Repository.LocalPath
	if localPath == "" {
		localPath = "."
	}
	tree, err := checkout.Open(localPath)
	if err != nil {
		logger.Errorf("Failed to open checkout: %v", err)
		return
	}

	logger.WithFields(logger.Fields{
		"job_id":          settings.JobID,
		"package_manager": settings.PackageManager,
		"base_commit":     tree.BaseCommit,
	}).Info("Starting groupupdate run...")

	summary, runErr := it.command.Execute(ctx, settings, commands.RunOptions{
		FileSystem:   tree.FileSystem,
		BaseCommit:   tree.BaseCommit,
		ProviderName: providerOverride,
	})
	if runErr != nil {
		logger.Errorf("Run failed: %v", runErr)
		os.Exit(1)
	}

	for _, plan := range summary.Plans {
		logger.Infof("Group %q: %d created, %d updated, %d closed", plan.Group,
			plan.Count(entities.PullRequestActionCreate),
			plan.Count(entities.PullRequestActionUpdate),
			plan.Count(entities.PullRequestActionClose),
		)
	}
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Override the repository provider (github, dryrun)")
}
