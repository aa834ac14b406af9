package commands

import (
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// Explain is the interface for the explain command.
type Explain interface {
	Execute(settings *entities.Settings, dependencyName, directory string) Explanation
}

// Explanation is the group membership verdict for one dependency.
type Explanation struct {
	Dependency string
	Directory  string
	Scores     []entities.GroupScore
	// Winner is the group that updates the dependency, or "" when no group does.
	Winner string
}

// ExplainCommand shows which group claims a dependency and why.
type ExplainCommand struct {
	container entities.DependencyContainer
}

// NewExplainCommand creates an ExplainCommand.
func NewExplainCommand(container entities.DependencyContainer) *ExplainCommand {
	return &ExplainCommand{container: container}
}

// Execute scores every active group for the dependency. The winner is the
// first containing group in configuration order that no other group beats.
func (it *ExplainCommand) Execute(settings *entities.Settings, dependencyName, directory string) Explanation {
	directory = entities.NormalizeDirectory(directory)
	groups := settings.ActiveGroups()
	scorer := entities.NewSpecificityScorer(groups, it.container)
	query := entities.ArbitrationQuery{
		Dependency: entities.Dependency{Name: dependencyName},
		Directory:  directory,
		AppliesTo:  settings.AppliesTo(),
	}

	explanation := Explanation{Dependency: dependencyName, Directory: directory, Scores: scorer.Scores(query)}
	for _, group := range groups {
		if !it.container.ContainsDependency(group, query.Dependency, directory) {
			continue
		}
		if scorer.BelongsToMoreSpecificGroup(group, query) {
			continue
		}
		explanation.Winner = group.Name
		break
	}
	return explanation
}
