package reporter

import (
	"context"
	"sort"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/domain/repositories"
)

// LogErrorReporterRepository writes job errors to the log and keeps metric
// counters in memory for the end-of-run summary.
type LogErrorReporterRepository struct {
	mu      sync.Mutex
	metrics map[string]int
	errors  map[entities.ErrorType]int
}

// NewLogErrorReporterRepository creates an empty reporter.
func NewLogErrorReporterRepository() repositories.ErrorReporterRepository {
	return NewLogErrorReporter()
}

// NewLogErrorReporter returns the concrete reporter, for callers that read counters.
func NewLogErrorReporter() *LogErrorReporterRepository {
	return &LogErrorReporterRepository{
		metrics: make(map[string]int),
		errors:  make(map[entities.ErrorType]int),
	}
}

func (r *LogErrorReporterRepository) RecordUpdateJobError(
	_ context.Context,
	errorType entities.ErrorType,
	details map[string]any,
) {
	r.mu.Lock()
	r.errors[errorType]++
	r.mu.Unlock()

	logger.WithFields(logger.Fields(details)).WithField("error_type", errorType).Warn("Recorded update job error")
}

func (r *LogErrorReporterRepository) RecordUpdateJobUnknownError(
	_ context.Context,
	errorType entities.ErrorType,
	details map[string]any,
) {
	fields := logger.Fields{}
	for k, v := range details {
		if k == "error-backtrace" {
			continue
		}
		fields[k] = v
	}
	logger.WithFields(fields).WithField("error_type", errorType).Error("Recorded unknown update job error")
	if backtrace, ok := details["error-backtrace"].(string); ok {
		logger.Debugf("Backtrace:\n%s", backtrace)
	}
}

func (r *LogErrorReporterRepository) IncrementMetric(_ context.Context, metric string, tags map[string]string) {
	key := metricKey(metric, tags)
	r.mu.Lock()
	r.metrics[key]++
	r.mu.Unlock()
	logger.Debugf("Metric %s incremented", key)
}

// ErrorCount returns how many errors of a type were recorded.
func (r *LogErrorReporterRepository) ErrorCount(errorType entities.ErrorType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors[errorType]
}

// MetricCount returns a counter by metric name and tags.
func (r *LogErrorReporterRepository) MetricCount(metric string, tags map[string]string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics[metricKey(metric, tags)]
}

func metricKey(metric string, tags map[string]string) string {
	if len(tags) == 0 {
		return metric
	}
	pairs := make([]string, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return metric + "{" + strings.Join(pairs, ",") + "}"
}
