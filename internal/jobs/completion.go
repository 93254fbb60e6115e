// Package jobs runs periodic maintenance of reservations.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultCompletionSchedule every five minutes
const DefaultCompletionSchedule = "*/5 * * * *"

// ErrSchedule returned for an invalid cron expression
var ErrSchedule = errors.New("jobs: invalid schedule")

// Completer marks ended reservations as completed
type Completer interface {
	CompleteEnded(ctx context.Context) (int, error)
}

// Logger logging interface
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Scheduler runs the completion job on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	completer Completer
	timeout   time.Duration
	logger    Logger
}

// NewScheduler registers the completion job. timeout bounds a single run.
func NewScheduler(completer Completer, schedule string, timeout time.Duration, location *time.Location, logger Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultCompletionSchedule
	}
	if location == nil {
		location = time.Local
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(location), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		completer: completer,
		timeout:   timeout,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSchedule, schedule, err)
	}

	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler: starting completion job")
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler: stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler: stop timed out: %v", ctx.Err())
	}
}

// RunOnce completes ended reservations once
func (s *Scheduler) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	completed, err := s.completer.CompleteEnded(ctx)
	if err != nil {
		s.logger.Error("CompletionJob: failed to complete ended reservations: %v", err)
		return
	}
	if completed > 0 {
		s.logger.Info("CompletionJob: marked %d reservations as completed", completed)
	}
}
