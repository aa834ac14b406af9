package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/groupupdate/internal/infrastructure/repositories"
)

// Run is the interface for the run command (one job, every group).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) (*RunSummary, error)
}

// RunOptions holds runtime inputs that do not come from the job file.
type RunOptions struct {
	FileSystem   billy.Filesystem // Checkout the directories are read from
	BaseCommit   string
	ProviderName string // If set, overrides the job's repository provider
}

// RunSummary reports what a run decided.
type RunSummary struct {
	Plans     []entities.PullRequestPlan
	Ungrouped []string
	Handled   int
	Errors    int
}

type directorySnapshot struct {
	directory    string
	files        []entities.DependencyFile
	dependencies []entities.Dependency
}

// RunCommand orchestrates the full group update flow:
// read directories -> assign groups -> update each group -> reconcile pull requests.
type RunCommand struct {
	ecosystems   *infraRepos.EcosystemRegistry
	pullRequests *infraRepos.PullRequestRegistry
	reporter     repositories.ErrorReporterRepository
	container    entities.DependencyContainer
}

// NewRunCommand creates a new RunCommand with the given registries.
func NewRunCommand(
	ecosystems *infraRepos.EcosystemRegistry,
	pullRequests *infraRepos.PullRequestRegistry,
	reporter repositories.ErrorReporterRepository,
	container entities.DependencyContainer,
) *RunCommand {
	return &RunCommand{
		ecosystems:   ecosystems,
		pullRequests: pullRequests,
		reporter:     reporter,
		container:    container,
	}
}

// Execute runs every active group of the job. Directories of one group are
// updated in parallel, each with its own batch, and merged afterwards. A
// run-halting error stops the run and discards everything not yet applied.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts RunOptions,
) (*RunSummary, error) {
	ecosystem, err := it.ecosystems.Get(settings.PackageManager)
	if err != nil {
		return nil, err
	}

	providerName := settings.Repository.Provider
	if opts.ProviderName != "" {
		providerName = opts.ProviderName
	}
	if settings.DryRun {
		providerName = "dryrun"
	}
	pullRequests, err := it.pullRequests.Get(providerName, settings)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{}
	errorHandler := NewErrorHandler(it.reporter, settings)
	handled := NewHandledDependencies()
	groups := settings.ActiveGroups()
	scorer := entities.NewSpecificityScorer(groups, it.container)
	engine := NewGroupEngine(
		scorer,
		it.container,
		settings.ExperimentEnabled(entities.ExperimentGroupMembershipEnforcement),
		settings.AppliesTo(),
	)
	planner := NewGroupUpdateCommand(ecosystem, it.reporter, errorHandler, handled, scorer, settings)
	reconciler := NewReconcileCommand(pullRequests, errorHandler)

	snapshots, err := it.readDirectories(ctx, ecosystem, settings, opts, errorHandler, summary)
	if err != nil {
		return summary, err
	}

	assignments := make(map[string][]GroupAssignment, len(snapshots))
	ungrouped := make(map[string]struct{})
	for _, snapshot := range snapshots {
		perGroup, rest := engine.Assign(snapshot.dependencies, snapshot.directory)
		assignments[snapshot.directory] = perGroup
		for _, dep := range rest {
			ungrouped[dep.Name] = struct{}{}
		}
	}

	logger.Infof("Running %d dependency groups over %d directories", len(groups), len(snapshots))
	for i, group := range groups {
		change, runErr := it.updateGroup(ctx, planner, group, i, snapshots, assignments)
		if runErr != nil {
			if _, halting := RunHaltingType(runErr); halting {
				errorHandler.ReportRunHalting(ctx, runErr)
				return summary, runErr
			}
			summary.Errors++
			if jobErr := errorHandler.HandleJobError(ctx, runErr, &group); jobErr != nil {
				return summary, jobErr
			}
			continue
		}
		if change == nil {
			continue
		}

		plan, reconcileErr := reconciler.Execute(ctx, change, settings.ExistingPullRequestsFor(group.Name), opts.BaseCommit)
		if reconcileErr != nil {
			errorHandler.ReportRunHalting(ctx, reconcileErr)
			return summary, reconcileErr
		}
		summary.Plans = append(summary.Plans, plan)
	}

	for name := range ungrouped {
		summary.Ungrouped = append(summary.Ungrouped, name)
	}
	summary.Handled = handled.Len()
	logger.Infof(
		"Run complete: %d groups planned, %d dependencies handled, %d ungrouped, %d errors",
		len(summary.Plans), summary.Handled, len(summary.Ungrouped), summary.Errors,
	)
	return summary, nil
}

// updateGroup updates one group in every directory and merges the results.
// A nil change means there is nothing to reconcile for this group.
func (it *RunCommand) updateGroup(
	ctx context.Context,
	planner GroupUpdate,
	group entities.DependencyGroup,
	groupIndex int,
	snapshots []directorySnapshot,
	assignments map[string][]GroupAssignment,
) (*entities.ChangeRecord, error) {
	changes := make([]entities.DirectoryChange, len(snapshots))
	discarded := make([]bool, len(snapshots))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, snapshot := range snapshots {
		members := assignments[snapshot.directory][groupIndex].Dependencies
		changes[i].Directory = snapshot.directory
		if len(members) == 0 {
			continue
		}
		eg.Go(func() error {
			change, err := planner.Execute(egCtx, GroupUpdateInput{
				Group:        group,
				Directory:    snapshot.directory,
				Dependencies: members,
				Files:        snapshot.files,
			})
			if err != nil {
				if _, halting := RunHaltingType(err); halting {
					return err
				}
				return fmt.Errorf("group %q in %s: %w", group.Name, snapshot.directory, err)
			}
			changes[i].Change = change
			discarded[i] = change == nil
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, d := range discarded {
		if d {
			logger.Warnf("Skipping pull request changes for group %q: its change was discarded", group.Name)
			return nil, nil //nolint:nilnil // discarded aggregate
		}
	}
	return entities.MergeDirectoryChanges(changes, &group), nil
}

// readDirectories fetches and parses every directory of the job. Directories
// that cannot be read are reported and left out.
func (it *RunCommand) readDirectories(
	ctx context.Context,
	ecosystem repositories.EcosystemRepository,
	settings *entities.Settings,
	opts RunOptions,
	errorHandler *ErrorHandler,
	summary *RunSummary,
) ([]directorySnapshot, error) {
	if opts.FileSystem == nil {
		return nil, errors.New("no file system to read dependency files from")
	}

	snapshots := make([]directorySnapshot, 0, len(settings.Directories))
	for _, directory := range settings.Directories {
		files, err := ecosystem.FetchFiles(ctx, opts.FileSystem, directory)
		if err == nil {
			var deps []entities.Dependency
			deps, err = ecosystem.ParseFiles(ctx, files)
			if err == nil {
				snapshots = append(snapshots, directorySnapshot{directory: directory, files: files, dependencies: deps})
				continue
			}
		}

		summary.Errors++
		if _, halting := RunHaltingType(err); halting {
			errorHandler.ReportRunHalting(ctx, err)
			return nil, err
		}
		if jobErr := errorHandler.HandleJobError(ctx, fmt.Errorf("directory %s: %w", directory, err), nil); jobErr != nil {
			return nil, jobErr
		}
	}
	return snapshots, nil
}
