// Package notify sends the kitchen one headcount email per meal per day, at the
// meal's cutoff.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"messmate/internal/meal"
	"messmate/internal/metrics"
)

// StatusStore persists which summaries were sent.
type StatusStore interface {
	Get(ctx context.Context, date string) (Status, error)
	MarkSent(ctx context.Context, date string, k meal.Kind) error
}

// HeadcountSource counts the students marked for a meal.
type HeadcountSource interface {
	Headcount(ctx context.Context, date string, k meal.Kind) (int, error)
}

// Notifier delivers the summary.
type Notifier interface {
	SendMealSummary(ctx context.Context, to string, k meal.Kind, count int) error
}

// Locker claims a run across replicas. Optional.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Options configures a Scheduler. Zero values fall back to defaults.
type Options struct {
	Recipient   string
	SendTimeout time.Duration
	Locker      Locker
	LockTTL     time.Duration
	Clock       clockwork.Clock
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// Scheduler runs one timer per meal. Each timer fires at the meal's cutoff and
// re-arms for the next day's cutoff.
type Scheduler struct {
	schedule *meal.Schedule
	statuses StatusStore
	heads    HeadcountSource
	notifier Notifier
	opts     Options

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped scheduler.
func New(schedule *meal.Schedule, statuses StatusStore, heads HeadcountSource, notifier Notifier, opts Options) *Scheduler {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Scheduler{schedule: schedule, statuses: statuses, heads: heads, notifier: notifier, opts: opts}
}

// Start launches the per-meal tasks. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, k := range meal.Kinds {
		s.wg.Add(1)
		go s.run(ctx, k)
	}
	s.opts.Log.Info("notification scheduler started", zap.String("recipient", s.opts.Recipient))
}

// Stop cancels the tasks and waits for an in-flight send to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.opts.Log.Info("notification scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, k meal.Kind) {
	defer s.wg.Done()
	log := s.opts.Log.With(zap.Stringer("meal", k))

	now := s.opts.Clock.Now()
	next := s.schedule.CutoffOn(k, now)
	if !s.schedule.IsMarkable(k, now) {
		log.Info("cutoff already passed, skipping today", zap.Time("cutoff", next))
		next = s.schedule.CutoffOn(k, next.AddDate(0, 0, 1))
	}

	for {
		log.Debug("armed", zap.Time("at", next))
		timer := s.opts.Clock.NewTimer(next.Sub(s.opts.Clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}

		date := s.schedule.DateKey(next)
		if _, err := s.Fire(ctx, k, date); err != nil {
			log.Error("kitchen notification failed", zap.String("date", date), zap.Error(err))
		}
		next = s.schedule.CutoffOn(k, next.AddDate(0, 0, 1))
	}
}

// Fire sends the summary of k for date unless it was already sent, nobody is
// marked, or another replica holds the claim. It returns the metrics outcome.
func (s *Scheduler) Fire(ctx context.Context, k meal.Kind, date string) (string, error) {
	outcome, err := s.fire(ctx, k, date)
	s.opts.Metrics.Notifications.WithLabelValues(k.String(), outcome).Inc()
	return outcome, err
}

func (s *Scheduler) fire(ctx context.Context, k meal.Kind, date string) (string, error) {
	log := s.opts.Log.With(zap.Stringer("meal", k), zap.String("date", date))

	status, err := s.statuses.Get(ctx, date)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if status.Sent(k) {
		log.Info("summary already sent")
		return metrics.OutcomeAlreadySent, nil
	}

	count, err := s.heads.Headcount(ctx, date, k)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if count == 0 {
		log.Info("no students marked, not notifying kitchen")
		return metrics.OutcomeNoStudents, nil
	}

	if s.opts.Locker != nil {
		ok, err := s.opts.Locker.Acquire(ctx, date+":"+k.String(), s.opts.LockTTL)
		if err != nil {
			return metrics.OutcomeFailed, err
		}
		if !ok {
			log.Info("another worker owns this summary")
			return metrics.OutcomeLocked, nil
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()
	if err := s.notifier.SendMealSummary(sendCtx, s.opts.Recipient, k, count); err != nil {
		return metrics.OutcomeFailed, err
	}
	if err := s.statuses.MarkSent(ctx, date, k); err != nil {
		return metrics.OutcomeFailed, err
	}
	log.Info("kitchen notified", zap.Int("headcount", count))
	return metrics.OutcomeSent, nil
}
