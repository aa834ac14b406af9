//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// RecordedError is one RecordUpdateJobError or RecordUpdateJobUnknownError call.
type RecordedError struct {
	Type    entities.ErrorType
	Details map[string]any
}

// RecordedMetric is one IncrementMetric call.
type RecordedMetric struct {
	Metric string
	Tags   map[string]string
}

// SpyErrorReporterRepository implements repositories.ErrorReporterRepository as a spy.
type SpyErrorReporterRepository struct {
	mu            sync.Mutex
	Errors        []RecordedError
	UnknownErrors []RecordedError
	Metrics       []RecordedMetric
}

var _ repositories.ErrorReporterRepository = (*SpyErrorReporterRepository)(nil)

func (r *SpyErrorReporterRepository) RecordUpdateJobError(
	_ context.Context,
	errorType entities.ErrorType,
	details map[string]any,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, RecordedError{Type: errorType, Details: details})
}

func (r *SpyErrorReporterRepository) RecordUpdateJobUnknownError(
	_ context.Context,
	errorType entities.ErrorType,
	details map[string]any,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UnknownErrors = append(r.UnknownErrors, RecordedError{Type: errorType, Details: details})
}

func (r *SpyErrorReporterRepository) IncrementMetric(_ context.Context, metric string, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Metrics = append(r.Metrics, RecordedMetric{Metric: metric, Tags: tags})
}

// ErrorTypes returns the recorded error types in order.
func (r *SpyErrorReporterRepository) ErrorTypes() []entities.ErrorType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]entities.ErrorType, 0, len(r.Errors))
	for _, recorded := range r.Errors {
		types = append(types, recorded.Type)
	}
	return types
}
