package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"NewsDigest/internal/ports"
)

// DailyScheduler fires a job at fixed local hours every day.
type DailyScheduler struct {
	hours  []int
	loc    *time.Location
	logger *slog.Logger

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds a scheduler for the given hours (0-23) in loc.
func NewDailyScheduler(hours []int, loc *time.Location, log *slog.Logger) *DailyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	return &DailyScheduler{
		hours:  sorted,
		loc:    loc,
		logger: log,
		now:    time.Now,
		after:  time.After,
	}
}

// NextFire returns the first configured hour strictly after now.
func (s *DailyScheduler) NextFire(now time.Time) time.Time {
	local := now.In(s.loc)
	for offset := 0; offset <= 1; offset++ {
		day := local.AddDate(0, 0, offset)
		for _, h := range s.hours {
			at := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, s.loc)
			if at.After(now) {
				return at
			}
		}
	}
	return time.Time{}
}

// Start runs job at every fire time until ctx is cancelled or Stop is called.
// Jobs run on the scheduler goroutine, so a slow job delays the next check.
func (s *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("scheduler job is nil")
	}
	if len(s.hours) == 0 {
		return errors.New("scheduler has no hours configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(runCtx, job, s.done)
	return nil
}

func (s *DailyScheduler) loop(ctx context.Context, job func(time.Time), done chan struct{}) {
	defer close(done)
	for {
		next := s.NextFire(s.now())
		if s.logger != nil {
			s.logger.Info("next run scheduled", "at", next)
		}

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
			job(next)
		}
	}
}

// Stop halts the loop and waits for a running job to return.
func (s *DailyScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
