package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime/debug"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// runHaltingErrors maps every condition that must abort the whole run to the
// type it is reported under.
var runHaltingErrors = []struct { //nolint:gochecknoglobals // fixed table
	target    error
	errorType entities.ErrorType
}{
	{entities.ErrOutOfDisk, entities.ErrorTypeOutOfDisk},
	{syscall.ENOSPC, entities.ErrorTypeOutOfDisk},
	{entities.ErrOutOfMemory, entities.ErrorTypeOutOfMemory},
	{entities.ErrAllVersionsIgnored, entities.ErrorTypeAllVersionsIgnored},
	{entities.ErrUnexpectedExternalCode, entities.ErrorTypeUnexpectedExternalCode},
	{entities.ErrUnauthorized, entities.ErrorTypeUnauthorized},
}

// RunHaltingType returns the reported type of a run-halting error, or false
// when the error is recoverable.
func RunHaltingType(err error) (entities.ErrorType, bool) {
	for _, halting := range runHaltingErrors {
		if errors.Is(err, halting.target) {
			return halting.errorType, true
		}
	}
	return "", false
}

// ClassifyError maps a recoverable error to its reported type and details.
func ClassifyError(err error) (entities.ErrorType, map[string]any) {
	var updaterErr *entities.UpdaterError
	if errors.As(err, &updaterErr) {
		details := make(map[string]any, len(updaterErr.Details)+1)
		for k, v := range updaterErr.Details {
			details[k] = v
		}
		if updaterErr.Err != nil {
			details["message"] = updaterErr.Err.Error()
		}
		return updaterErr.Type, details
	}

	var inconsistent *entities.InconsistentRegistryResponseError
	if errors.As(err, &inconsistent) {
		return entities.ErrorTypeInconsistentRegistryResponse, map[string]any{"source": inconsistent.Registry}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return entities.ErrorTypePrivateSourceTimedOut, map[string]any{"message": err.Error()}
	case errors.Is(err, fs.ErrNotExist):
		return entities.ErrorTypeDependencyFileNotFound, map[string]any{"message": err.Error()}
	default:
		return entities.ErrorTypeUnknown, nil
	}
}

// ErrorHandler separates run-halting failures from per-dependency and per-job
// failures that are reported and then skipped.
type ErrorHandler struct {
	reporter repositories.ErrorReporterRepository
	settings *entities.Settings
}

// NewErrorHandler creates an ErrorHandler reporting to the given sink.
func NewErrorHandler(reporter repositories.ErrorReporterRepository, settings *entities.Settings) *ErrorHandler {
	return &ErrorHandler{reporter: reporter, settings: settings}
}

// HandleDependencyError reports a failure that happened while updating one
// dependency. Run-halting errors are returned unmodified; anything else is
// reported and swallowed so the caller can continue with the next dependency.
func (it *ErrorHandler) HandleDependencyError(
	ctx context.Context,
	err error,
	dependency entities.Dependency,
	group *entities.DependencyGroup,
) error {
	if _, halting := RunHaltingType(err); halting {
		return err
	}

	fields := logger.Fields{"dependency": dependency.Name}
	details := map[string]any{"dependency-name": dependency.Name}
	if group != nil {
		fields["group"] = group.Name
		details["dependency-group"] = group.Name
	}
	it.report(ctx, err, fields, details)
	return nil
}

// HandleJobError reports a failure that is not tied to a single dependency.
// Run-halting errors are returned unmodified.
func (it *ErrorHandler) HandleJobError(ctx context.Context, err error, group *entities.DependencyGroup) error {
	if _, halting := RunHaltingType(err); halting {
		return err
	}

	fields := logger.Fields{}
	details := map[string]any{}
	if group != nil {
		fields["group"] = group.Name
		details["dependency-group"] = group.Name
	}
	it.report(ctx, err, fields, details)
	return nil
}

// LogDependencyError only logs a failure. Used for transient registry
// inconsistencies, which are not worth an error report.
func (it *ErrorHandler) LogDependencyError(err error, dependency entities.Dependency) {
	logger.WithFields(logger.Fields{
		"dependency": dependency.Name,
		"error":      err.Error(),
	}).Warn("Skipping dependency after a transient registry error")
}

// ReportRunHalting records the error that aborted the run.
func (it *ErrorHandler) ReportRunHalting(ctx context.Context, err error) {
	errorType, halting := RunHaltingType(err)
	if !halting {
		return
	}
	logger.WithFields(logger.Fields{
		"error_type": errorType,
		"job_id":     it.settings.JobID,
	}).Errorf("Run halted: %v", err)
	it.reporter.RecordUpdateJobError(ctx, errorType, map[string]any{"message": err.Error()})
}

func (it *ErrorHandler) report(ctx context.Context, err error, fields logger.Fields, details map[string]any) {
	errorType, classified := ClassifyError(err)
	for k, v := range classified {
		details[k] = v
	}
	fields["error_type"] = errorType

	if errorType != entities.ErrorTypeUnknown {
		logger.WithFields(fields).Warnf("Handled error: %v", err)
		it.reporter.RecordUpdateJobError(ctx, errorType, details)
		return
	}

	logger.WithFields(fields).Errorf("Unknown error: %v", err)
	details["error-class"] = fmt.Sprintf("%T", err)
	details["error-message"] = err.Error()
	it.reporter.RecordUpdateJobError(ctx, errorType, details)
	it.reporter.IncrementMetric(ctx, "updater.update_job_unknown_error", map[string]string{
		"package_manager": it.settings.PackageManager,
	})

	if !it.settings.ExperimentEnabled(entities.ExperimentRecordUpdateJobUnknownError) {
		return
	}
	diagnostics := make(map[string]any, len(details)+3)
	for k, v := range details {
		diagnostics[k] = v
	}
	diagnostics["error-backtrace"] = string(debug.Stack())
	diagnostics["package-manager"] = it.settings.PackageManager
	diagnostics["job-id"] = it.settings.JobID
	it.reporter.RecordUpdateJobUnknownError(ctx, errorType, diagnostics)
}
