package commands

import (
	"context"
	"fmt"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// ChangeBuilder turns a set of cooperating dependency updates into a ChangeRecord.
type ChangeBuilder struct {
	updater repositories.FileUpdater
}

// NewChangeBuilder creates a ChangeBuilder around an ecosystem file updater.
func NewChangeBuilder(updater repositories.FileUpdater) *ChangeBuilder {
	return &ChangeBuilder{updater: updater}
}

// Build applies the updates to files and keeps only the files that actually changed.
func (it *ChangeBuilder) Build(
	ctx context.Context,
	lead entities.Dependency,
	updated []entities.Dependency,
	files []entities.DependencyFile,
	group *entities.DependencyGroup,
) (*entities.ChangeRecord, error) {
	updatedFiles, err := it.updater.UpdateFiles(ctx, lead, updated, files)
	if err != nil {
		return nil, err
	}

	originals := make(map[string]string, len(files))
	for _, file := range files {
		originals[file.Path()] = file.Content
	}

	var changed []entities.DependencyFile
	for _, file := range updatedFiles {
		original, existed := originals[file.Path()]
		if existed && !file.Vendored && file.Operation == entities.FileOperationUpdate && original == file.Content {
			continue
		}
		changed = append(changed, file)
	}
	if len(changed) == 0 {
		return nil, entities.NewUpdaterError(
			entities.ErrorTypeUpdateFailed,
			fmt.Errorf("no files were changed when updating %s", lead.Name),
			map[string]any{"dependency-name": lead.Name},
		)
	}

	deps := make([]entities.UpdatedDependency, 0, len(updated))
	for _, dep := range updated {
		deps = append(deps, entities.UpdatedDependency{Dependency: dep, Reason: entities.SelectedByChecker})
	}
	return &entities.ChangeRecord{
		UpdatedDependencies: deps,
		UpdatedFiles:        changed,
		Group:               group,
	}, nil
}
