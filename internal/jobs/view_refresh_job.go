// Package jobs holds the periodic derived-view refresh, the "separate
// background process" the import lock exists to coordinate with.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"reassignment-service/internal/repository"
)

// ViewRefreshJob recomputes derived views on a schedule, standing down while
// an import holds the lock.
type ViewRefreshJob struct {
	views    repository.ViewRepository
	locks    repository.LockRepository
	schedule string
	cron     *cron.Cron
	logger   *logrus.Entry
}

func NewViewRefreshJob(views repository.ViewRepository, locks repository.LockRepository, schedule string, logger *logrus.Logger) *ViewRefreshJob {
	return &ViewRefreshJob{
		views:    views,
		locks:    locks,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.WithField("component", "view-refresh-job"),
	}
}

// Start registers the schedule and begins running cycles.
func (j *ViewRefreshJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.runOnce); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("View refresh job started")
	return nil
}

// Stop halts the schedule, waiting for a running cycle to finish.
func (j *ViewRefreshJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("View refresh job stopped")
}

func (j *ViewRefreshJob) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	held, err := j.locks.IsHeld(ctx)
	if err != nil {
		j.logger.WithError(err).Warn("Lock check failed, skipping cycle")
		return
	}
	if held {
		j.logger.Info("Import lock held, skipping refresh cycle")
		return
	}

	start := time.Now()
	if err := j.views.RefreshDerivedViews(ctx); err != nil {
		j.logger.WithError(err).Error("Derived view refresh failed")
		return
	}
	j.logger.WithField("duration", time.Since(start).String()).Info("Derived views refreshed")
}
