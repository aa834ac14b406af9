package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// GroupUpdate is the interface for building one group's aggregate change in one directory.
type GroupUpdate interface {
	Execute(ctx context.Context, input GroupUpdateInput) (*entities.ChangeRecord, error)
}

// GroupUpdateInput is everything a group update needs for one directory.
type GroupUpdateInput struct {
	Group     entities.DependencyGroup
	Directory string
	// Dependencies are the group members as discovered at run start, in update order.
	Dependencies []entities.Dependency
	// Files are the directory's dependency files as read at run start.
	Files []entities.DependencyFile
}

// GroupUpdateCommand updates a group's dependencies one after the other,
// folding each result into a ChangeBatch. Later dependencies always see the
// files produced by earlier ones.
type GroupUpdateCommand struct {
	ecosystem repositories.EcosystemRepository
	reporter  repositories.ErrorReporterRepository
	errors    *ErrorHandler
	handled   *HandledDependencies
	scorer    *entities.SpecificityScorer
	settings  *entities.Settings
	builder   *ChangeBuilder
}

// NewGroupUpdateCommand creates a GroupUpdateCommand for one ecosystem.
func NewGroupUpdateCommand(
	ecosystem repositories.EcosystemRepository,
	reporter repositories.ErrorReporterRepository,
	errorHandler *ErrorHandler,
	handled *HandledDependencies,
	scorer *entities.SpecificityScorer,
	settings *entities.Settings,
) *GroupUpdateCommand {
	return &GroupUpdateCommand{
		ecosystem: ecosystem,
		reporter:  reporter,
		errors:    errorHandler,
		handled:   handled,
		scorer:    scorer,
		settings:  settings,
		builder:   NewChangeBuilder(ecosystem),
	}
}

// Execute runs the update loop and returns the group's aggregate change. A nil
// change without error means the aggregate was discarded by validation.
// Run-halting errors stop the loop immediately and are returned unmodified.
func (it *GroupUpdateCommand) Execute(ctx context.Context, input GroupUpdateInput) (*entities.ChangeRecord, error) {
	group := input.Group
	directory := entities.NormalizeDirectory(input.Directory)
	var notices []entities.Notice

	var opts []entities.ChangeBatchOption
	if it.settings.ExperimentEnabled(entities.ExperimentGroupMembershipEnforcement) && it.scorer != nil {
		opts = append(opts, entities.WithMembershipEnforcement(entities.MembershipEnforcement{
			Scorer:    it.scorer,
			Group:     group,
			AppliesTo: it.settings.AppliesTo(),
			OnDropped: func(dep entities.UpdatedDependency, winner string) {
				it.reporter.IncrementMetric(ctx, "updater.group_membership_dropped", map[string]string{
					"group":      group.Name,
					"claimed_by": winner,
				})
				notices = append(notices, entities.Notice{
					Mode:  entities.NoticeModeInfo,
					Type:  "group_membership_dropped",
					Title: fmt.Sprintf("%s is updated by group %s", dep.Name, winner),
					Description: fmt.Sprintf(
						"%s matches group %s more specifically than %s, so it is left out of this pull request.",
						dep.Name, winner, group.Name,
					),
				})
			},
		}))
	}
	batch := entities.NewChangeBatch(input.Files, opts...)

	logger.WithFields(logger.Fields{
		"group":        group.Name,
		"directory":    directory,
		"dependencies": len(input.Dependencies),
	}).Info("Updating dependency group")

	for _, original := range input.Dependencies {
		if it.handled.Contains(directory, original.Name) && !it.settings.IsRefreshing(group.Name) {
			logger.Debugf("Skipping %s: already handled by an earlier group", original.Name)
			continue
		}
		if err := it.updateDependency(ctx, group, directory, original, batch); err != nil {
			return nil, err
		}
	}

	change := batch.Finalize(&group, notices)
	if it.settings.ExperimentEnabled(entities.ExperimentDependencyChangeValidation) && !change.AllHavePreviousVersion() {
		logger.WithFields(logger.Fields{
			"group":     group.Name,
			"directory": directory,
		}).Warn("Discarding group change: an updated dependency has neither a previous version nor a requirement change")
		return nil, nil //nolint:nilnil // discarded aggregate
	}
	return change, nil
}

// updateDependency handles one member. Only run-halting errors and a batch
// that lost track of the directory are returned.
func (it *GroupUpdateCommand) updateDependency(
	ctx context.Context,
	group entities.DependencyGroup,
	directory string,
	original entities.Dependency,
	batch *entities.ChangeBatch,
) error {
	files, err := batch.CurrentFiles(directory)
	if err != nil {
		return err
	}

	reparsed, err := it.ecosystem.ParseFiles(ctx, files)
	if err != nil {
		return it.errors.HandleDependencyError(ctx, err, original, &group)
	}
	current, found := findDependency(reparsed, original.Name)
	if !found {
		logger.Debugf("Skipping %s: no longer present in %s", original.Name, directory)
		return nil
	}

	if current.Version != original.Version {
		logger.Infof("%s was already updated to %s by an earlier update in this group", current.Name, current.Version)
		it.handled.Add(directory, current.Name)
		batch.AddUpdatedDependency(original.WithVersion(current.Version, current.Requirements), directory)
		return nil
	}

	updated, err := it.compileUpdates(ctx, group, directory, current, files)
	if err != nil {
		return it.containDependencyError(ctx, err, current, &group)
	}
	if len(updated) == 0 {
		return nil
	}

	lead := findLeadDependency(updated, current.Name)
	change, err := it.builder.Build(ctx, lead, updated, files, &group)
	if err != nil {
		it.handled.Add(directory, current.Name)
		return it.containDependencyError(ctx, err, current, &group)
	}

	batch.Merge(change, directory)
	return nil
}

// compileUpdates asks the ecosystem checker which dependencies must change
// together to update dependency. An empty result means there is nothing to do.
func (it *GroupUpdateCommand) compileUpdates(
	ctx context.Context,
	group entities.DependencyGroup,
	directory string,
	dependency entities.Dependency,
	files []entities.DependencyFile,
) ([]entities.Dependency, error) {
	checker := it.ecosystem.NewUpdateChecker(dependency, files, it.settings.IgnoreConditionsFor(dependency.Name))
	logger.Infof("Checking if %s %s needs updating", dependency.Name, dependency.Version)

	latest, err := checker.LatestVersion(ctx)
	if errors.Is(err, entities.ErrAllVersionsIgnored) {
		logger.Infof("All updates for %s were ignored", dependency.Name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !it.semverRulesAllowGrouping(group, dependency, latest) {
		logger.Infof("Skipping %s for group %s: update-types do not allow %s -> %s",
			dependency.Name, group.Name, dependency.Version, latest)
		return nil, nil
	}

	// from here on no individual pull request may be raised for this dependency
	it.handled.Add(directory, dependency.Name)

	upToDate, err := checker.UpToDate(ctx)
	if err != nil {
		return nil, err
	}
	if upToDate {
		logger.Infof("No update needed for %s %s", dependency.Name, dependency.Version)
		return nil, nil
	}

	if it.settings.SecurityUpdatesOnly {
		fix, fixErr := checker.LowestSecurityFixVersion(ctx)
		if fixErr != nil {
			return nil, fixErr
		}
		logger.Infof("Lowest security fix version for %s is %s", dependency.Name, fix)
	}

	unlock, possible, err := requirementsToUnlock(ctx, checker)
	if err != nil {
		return nil, err
	}
	if !possible {
		logger.Infof("No update possible for %s %s", dependency.Name, dependency.Version)
		return nil, nil
	}

	logger.Debugf("Requirements to unlock for %s: %s", dependency.Name, unlock)
	return checker.UpdatedDependencies(ctx, unlock)
}

// semverRulesAllowGrouping checks the group's "update-types" rule against the
// size of the available bump. Versions the ecosystem cannot parse are not
// allowed, so the dependency falls through to an individual update.
func (it *GroupUpdateCommand) semverRulesAllowGrouping(
	group entities.DependencyGroup,
	dependency entities.Dependency,
	latest string,
) bool {
	if len(group.Rules.UpdateTypes) == 0 {
		return true
	}

	current, err := it.ecosystem.ParseVersion(dependency.Version)
	if err != nil {
		return false
	}
	candidate, err := it.ecosystem.ParseVersion(latest)
	if err != nil {
		return false
	}

	updateType, ok := ClassifyUpdate(current, candidate)
	if !ok {
		return false
	}
	return group.AllowsUpdateType(updateType)
}

// containDependencyError keeps a failed dependency from aborting the loop,
// unless the failure is run-halting.
func (it *GroupUpdateCommand) containDependencyError(
	ctx context.Context,
	err error,
	dependency entities.Dependency,
	group *entities.DependencyGroup,
) error {
	var inconsistent *entities.InconsistentRegistryResponseError
	if errors.As(err, &inconsistent) {
		it.errors.LogDependencyError(err, dependency)
		return nil
	}
	return it.errors.HandleDependencyError(ctx, err, dependency, group)
}

// ClassifyUpdate returns the magnitude of the bump from current to latest. It
// returns false when latest is not greater than current.
func ClassifyUpdate(current, latest repositories.Version) (entities.UpdateType, bool) {
	return entities.ClassifyBump(current.Segments(), latest.Segments())
}

// requirementsToUnlock picks the least disruptive unlock strategy the checker can satisfy.
func requirementsToUnlock(
	ctx context.Context,
	checker repositories.UpdateChecker,
) (entities.RequirementsUnlock, bool, error) {
	for _, unlock := range entities.UnlockStrategies {
		can, err := checker.CanUpdate(ctx, unlock)
		if err != nil {
			return "", false, err
		}
		if can {
			return unlock, true, nil
		}
	}
	return "", false, nil
}

func findDependency(deps []entities.Dependency, name string) (entities.Dependency, bool) {
	for _, dep := range deps {
		if dep.Name == name {
			return dep, true
		}
	}
	return entities.Dependency{}, false
}

// findLeadDependency picks the checker result for name. Registries may report
// a module under different casing, so a case-insensitive match is the fallback
// before the first result.
func findLeadDependency(deps []entities.Dependency, name string) entities.Dependency {
	if dep, found := findDependency(deps, name); found {
		return dep
	}
	for _, dep := range deps {
		if strings.EqualFold(dep.Name, name) {
			return dep
		}
	}
	return deps[0]
}
