//go:build unit

package reporter_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/groupupdate/internal/domain/entities"
	"github.com/rios0rios0/groupupdate/internal/infrastructure/repositories/reporter"
)

func TestLogErrorReporterRepository(t *testing.T) {
	t.Parallel()

	t.Run("should count errors by type", func(t *testing.T) {
		t.Parallel()
		// given
		repo := reporter.NewLogErrorReporter()
		ctx := context.Background()

		// when
		repo.RecordUpdateJobError(ctx, entities.ErrorTypeUnknown, map[string]any{"error-message": "boom"})
		repo.RecordUpdateJobError(ctx, entities.ErrorTypeUnknown, nil)
		repo.RecordUpdateJobError(ctx, entities.ErrorTypeUpdateFailed, nil)
		repo.RecordUpdateJobUnknownError(ctx, entities.ErrorTypeUnknown, map[string]any{"error-backtrace": "trace"})

		// then
		assert.Equal(t, 2, repo.ErrorCount(entities.ErrorTypeUnknown))
		assert.Equal(t, 1, repo.ErrorCount(entities.ErrorTypeUpdateFailed))
		assert.Zero(t, repo.ErrorCount(entities.ErrorTypeOutOfDisk))
	})

	t.Run("should count metrics by name and tags regardless of tag order", func(t *testing.T) {
		t.Parallel()
		// given
		repo := reporter.NewLogErrorReporter()
		ctx := context.Background()
		var wg sync.WaitGroup

		// when
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				repo.IncrementMetric(ctx, "updater.group_membership_dropped", map[string]string{"group": "a", "claimed_by": "b"})
			}()
		}
		wg.Wait()
		repo.IncrementMetric(ctx, "updater.update_job_unknown_error", nil)

		// then
		assert.Equal(t, 10, repo.MetricCount("updater.group_membership_dropped", map[string]string{"claimed_by": "b", "group": "a"}))
		assert.Equal(t, 1, repo.MetricCount("updater.update_job_unknown_error", nil))
		assert.Zero(t, repo.MetricCount("updater.group_membership_dropped", map[string]string{"group": "a"}))
	})
}
