package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"

	"github.com/amishk599/jobflow/internal/poller"
)

// Schedule yields the next fire time after t.
type Schedule interface {
	Next(t time.Time) time.Time
}

// Every fires at a fixed period after the previous pass finished.
type Every time.Duration

// Next implements Schedule.
func (e Every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// ParseSchedule builds a schedule from a six-field cron expression (seconds
// first) or, when cronSpec is empty, from a fixed interval.
func ParseSchedule(cronSpec string, interval time.Duration) (Schedule, error) {
	if cronSpec != "" {
		sched, err := cron.Parse(cronSpec)
		if err != nil {
			return nil, fmt.Errorf("parsing schedule %q: %w", cronSpec, err)
		}
		return sched, nil
	}
	if interval <= 0 {
		return nil, errors.New("either a cron schedule or a positive interval is required")
	}
	return Every(interval), nil
}

// Scheduler owns the main loop: fires on a schedule and runs each poller sequentially.
// The next fire time is computed after a pass completes, so passes never overlap.
type Scheduler struct {
	pollers    []*poller.SourcePoller
	schedule   Schedule
	runOnStart bool
	gap        time.Duration // pause between sources within a pass
	logger     *slog.Logger
	now        func() time.Time
}

// NewScheduler creates a scheduler that polls all sources on schedule.
func NewScheduler(pollers []*poller.SourcePoller, schedule Schedule, runOnStart bool, gap time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers:    pollers,
		schedule:   schedule,
		runOnStart: runOnStart,
		gap:        gap,
		logger:     logger,
		now:        time.Now,
	}
}

// Run starts the polling loop. With runOnStart it runs one immediate pass.
// It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"sources", len(s.pollers),
		"run_on_start", s.runOnStart,
	)

	if s.runOnStart {
		s.pollAll(ctx)
	}

	for {
		next := s.schedule.Next(s.now())
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Debug("next pass scheduled", "at", next.Format(time.RFC3339), "in", wait.Round(time.Millisecond).String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("shutting down scheduler")
			return nil
		case <-timer.C:
			s.pollAll(ctx)
		}
	}
}

// RunOnce runs a single pass and returns the per-source errors joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.pollAll(ctx)
}

// pollAll runs Poll on each poller sequentially with a pause between sources.
// Errors are logged and do not stop the pass.
func (s *Scheduler) pollAll(ctx context.Context) error {
	var errs []error
	for i, p := range s.pollers {
		if ctx.Err() != nil {
			return errors.Join(append(errs, ctx.Err())...)
		}

		if err := p.Poll(ctx); err != nil {
			s.logger.Error("poll failed",
				"source", p.Name,
				"error", err,
			)
			errs = append(errs, err)
		}

		if i < len(s.pollers)-1 && s.gap > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(append(errs, ctx.Err())...)
			case <-time.After(s.gap):
			}
		}
	}
	return errors.Join(errs...)
}
