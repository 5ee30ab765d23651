// Package refresh re-queries a listing feed on a fixed interval so a
// long-running view picks up listings created elsewhere.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/classmart/internal/metrics"
	"github.com/donaldgifford/classmart/pkg/logger"
)

// Refresher is anything that can reload itself. *listings.Feed implements it.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Scheduler runs Refresh on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	target Refresher
	ctx    context.Context
	log    *slog.Logger
}

// NewScheduler registers a refresh of target every interval. ctx is passed
// to each Refresh call; canceling it makes later refreshes fail fast
// without stopping the schedule.
func NewScheduler(
	ctx context.Context,
	target Refresher,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("refresh interval must be at least 1s (got %s)", interval)
	}

	c := cron.New()

	s := &Scheduler{
		cron:   c,
		target: target,
		ctx:    ctx,
		log:    logger.OrDiscard(log),
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runRefresh); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled refreshes.
func (s *Scheduler) Start() {
	s.log.Debug("refresh scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once a running
// refresh call has returned.
func (s *Scheduler) Stop() context.Context {
	s.log.Debug("refresh scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runRefresh() {
	if err := s.ctx.Err(); err != nil {
		s.log.Debug("skipping scheduled refresh", "error", err)
		return
	}
	s.log.Debug("scheduled refresh starting")
	metrics.FeedRefreshesTotal.Inc()
	s.target.Refresh(s.ctx)
}
