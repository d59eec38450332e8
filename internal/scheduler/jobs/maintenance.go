package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/flashpoint/pkg/logger"
)

// TrackingStore prunes aged scan and trade history.
type TrackingStore interface {
	CleanupOldData(ctx context.Context, days int) (int64, error)
}

// MaintenanceJob trims tracking data past the retention window.
type MaintenanceJob struct {
	store         TrackingStore
	retentionDays int
	logger        *logger.Logger
}

func NewMaintenanceJob(store TrackingStore, retentionDays int, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		store:         store,
		retentionDays: retentionDays,
		logger:        log.WithField("job", "tracking_cleanup"),
	}
}

func (j *MaintenanceJob) Name() string {
	return "tracking_cleanup"
}

// Schedule runs the cleanup daily at 3 AM.
func (j *MaintenanceJob) Schedule() string {
	return "0 0 3 * * *"
}

func (j *MaintenanceJob) Run(ctx context.Context) error {
	deleted, err := j.store.CleanupOldData(ctx, j.retentionDays)
	if err != nil {
		return fmt.Errorf("cleanup tracking data: %w", err)
	}

	if deleted > 0 {
		j.logger.WithField("removed", deleted).Info("Tracking cleanup completed")
	} else {
		j.logger.Debug("No tracking data past retention")
	}
	return nil
}
