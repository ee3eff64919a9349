package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"catalog-summary/internal/domain"
)

// DefaultPurgeSchedule runs the retention purge once an hour.
const DefaultPurgeSchedule = "@hourly"

// Purger deletes notifications older than the retention window on a cron
// schedule.
type Purger struct {
	cron      *cron.Cron
	repo      domain.NotificationRepository
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPurger validates the schedule and registers the purge job. The job does
// not run until Start is called.
func NewPurger(repo domain.NotificationRepository, schedule string, retention time.Duration, logger *slog.Logger) (*Purger, error) {
	if retention <= 0 {
		return nil, domain.ErrValidation("notification retention must be positive, got %s", retention)
	}
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	p := &Purger{
		cron:      cron.New(),
		repo:      repo,
		retention: retention,
		logger:    logger.With("component", "notification-purger"),
		now:       time.Now,
	}
	if _, err := p.cron.AddFunc(schedule, func() {
		if _, err := p.Purge(context.Background()); err != nil {
			p.logger.Warn("scheduled purge failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start starts the cron scheduler.
func (p *Purger) Start() {
	p.cron.Start()
	p.logger.Info("notification purger started", "retention", p.retention.String())
}

// Stop stops the scheduler and waits for a running purge to finish.
func (p *Purger) Stop() {
	<-p.cron.Stop().Done()
	p.logger.Info("notification purger stopped")
}

// Purge deletes every notification created before now minus the retention.
func (p *Purger) Purge(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	if n > 0 {
		p.logger.Info("purged notifications", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
