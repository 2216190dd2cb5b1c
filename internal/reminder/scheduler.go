package reminder

import (
	"context"
	"time"

	"github.com/jmhodges/clock"

	"rembot/pkg/logx"
)

// Notifier delivers a fired reminder to its destination.
type Notifier interface {
	Notify(ctx context.Context, e *Entry) error
}

// Scheduler fires due reminders on each tick. Delivery is at most once per
// tick per entry: an entry advances to its next state whether or not its
// delivery succeeded, so a flaky transport can drop a firing but never
// duplicate or wedge one.
type Scheduler struct {
	store           *Store
	notifier        Notifier
	clock           clock.Clock
	log             logx.Logger
	deliveryTimeout time.Duration
	retention       time.Duration
}

func NewScheduler(store *Store, notifier Notifier, clk clock.Clock, deliveryTimeout, retention time.Duration, log logx.Logger) *Scheduler {
	return &Scheduler{
		store:           store,
		notifier:        notifier,
		clock:           clk,
		log:             log.With(logx.String("component", "reminder.scheduler")),
		deliveryTimeout: deliveryTimeout,
		retention:       retention,
	}
}

// Tick delivers every due entry, advances each one, and flushes state once.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()
	due := s.store.Due(now)
	if len(due) == 0 {
		return
	}
	s.log.Debug("tick", logx.Int("due", len(due)))

	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		s.deliver(ctx, e)
		s.store.Advance(e.ID)
	}
	s.store.Flush(ctx)
}

func (s *Scheduler) deliver(ctx context.Context, e *Entry) {
	dctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	if err := s.notifier.Notify(dctx, e); err != nil {
		s.log.Error("delivery failed",
			logx.String("id", e.ShortID()),
			logx.Int64("destination", e.Destination),
			logx.Err(err))
		return
	}
	s.log.Info("reminder delivered",
		logx.String("id", e.ShortID()),
		logx.Int64("destination", e.Destination))
}

// Maintain prunes stale entries. Meant to run far less often than Tick.
func (s *Scheduler) Maintain(ctx context.Context) {
	s.store.Prune(ctx, s.clock.Now(), s.retention)
}
