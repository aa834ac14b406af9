package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// ExplainController handles the "explain" subcommand.
type ExplainController struct {
	command commands.Explain
}

// NewExplainController creates a new ExplainController.
func NewExplainController(command commands.Explain) *ExplainController {
	return &ExplainController{command: command}
}

// GetBind returns the Cobra command metadata for the explain controller.
func (it *ExplainController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "explain <dependency>",
		Short: "Show which dependency group updates a dependency",
		Long: `Score every configured dependency group for the given dependency name
and print which group claims it. Explicit members score 1000, groups
without patterns 500, and pattern matches by how specific the pattern is.`,
	}
}

// Execute prints the specificity table for one dependency.
func (it *ExplainController) Execute(cmd *cobra.Command, arguments []string) {
	if len(arguments) != 1 {
		logger.Error("explain expects exactly one dependency name")
		return
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}
	directory, _ := cmd.Flags().GetString("directory")

	explanation := it.command.Execute(settings, arguments[0], directory)
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s in %s\n", explanation.Dependency, explanation.Directory)
	for _, score := range explanation.Scores {
		marker := " "
		if score.Group == explanation.Winner {
			marker = "*"
		}
		if !score.Contained {
			_, _ = fmt.Fprintf(out, "%s %-30s -\n", marker, score.Group)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s %-30s %d\n", marker, score.Group, score.Score)
	}
	if explanation.Winner == "" {
		_, _ = fmt.Fprintln(out, "no group claims this dependency; it is updated individually")
	}
}

// AddFlags adds the explain-specific flags to the given Cobra command.
func (it *ExplainController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("directory", "/", "Directory the dependency lives in")
}
