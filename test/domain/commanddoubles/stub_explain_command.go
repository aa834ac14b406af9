//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/groupupdate/internal/domain/commands"
	"github.com/rios0rios0/groupupdate/internal/domain/entities"
)

// StubExplainCommand is a stub implementation of commands.Explain.
type StubExplainCommand struct {
	ExecuteCallCount int
	Explanation      commands.Explanation
	LastDependency   string
	LastDirectory    string
}

var _ commands.Explain = (*StubExplainCommand)(nil)

func (s *StubExplainCommand) Execute(_ *entities.Settings, dependencyName, directory string) commands.Explanation {
	s.ExecuteCallCount++
	s.LastDependency = dependencyName
	s.LastDirectory = directory
	return s.Explanation
}
