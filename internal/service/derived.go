package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/models"
)

// DerivedRefresher recomputes everything downstream of a structural mutation:
// cached day views are dropped, conflicts are re-detected and announced, and
// the mutation is counted. Every mutating service runs this after commit; no
// derived state is ever patched incrementally.
type DerivedRefresher struct {
	conflicts *ConflictService
	cache     *CacheService
	notifier  *NotificationService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewDerivedRefresher constructs a DerivedRefresher.
func NewDerivedRefresher(conflicts *ConflictService, cache *CacheService, notifier *NotificationService, metrics *MetricsService, logger *zap.Logger) *DerivedRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DerivedRefresher{conflicts: conflicts, cache: cache, notifier: notifier, metrics: metrics, logger: logger}
}

// AfterMutation runs the post-commit refresh. Failures here never unwind the
// committed mutation; they are logged and the next read recomputes anyway.
func (d *DerivedRefresher) AfterMutation(ctx context.Context, schedule *models.Schedule, kind string) {
	if d == nil {
		return
	}
	if d.metrics != nil {
		d.metrics.RecordMutation(kind)
	}
	if d.cache != nil {
		if err := d.cache.Invalidate(ctx, SchedulePattern(schedule.ID)); err != nil {
			d.logger.Warn("derived refresh: cache invalidation failed",
				zap.String("schedule_id", schedule.ID), zap.Error(err))
		}
	}
	if d.conflicts == nil {
		return
	}
	conflicts, err := d.conflicts.Detect(ctx, schedule, 0, 0)
	if err != nil {
		d.logger.Warn("derived refresh: conflict pass failed",
			zap.String("schedule_id", schedule.ID), zap.Error(err))
		return
	}
	if d.metrics != nil {
		d.metrics.RecordConflicts(conflicts)
	}
	if d.notifier != nil {
		d.notifier.ConflictsDetected(schedule, conflicts)
	}
}
