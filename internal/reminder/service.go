package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"

	"rembot/pkg/logx"
)

// Service is the command-facing surface: it parses user input into entries
// and applies ownership rules. Time flows through an injectable clock so
// tests can pin the wall clock.
type Service struct {
	store     *Store
	clock     clock.Clock
	log       logx.Logger
	loc       *time.Location
	maxListed int
}

func NewService(store *Store, clk clock.Clock, loc *time.Location, maxListed int, log logx.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if maxListed <= 0 {
		maxListed = 10
	}
	return &Service{
		store:     store,
		clock:     clk,
		log:       log.With(logx.String("component", "reminder.service")),
		loc:       loc,
		maxListed: maxListed,
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Now exposes the service clock so callers parse input against the same
// time base the scheduler runs on.
func (s *Service) Now() time.Time { return s.now() }

// CreateInput is a one-shot reminder request. Text carries the time
// expression followed by the message ("in 2 hours call mom").
type CreateInput struct {
	Owner       int64
	Destination int64
	Mode        Mode
	ImageRef    string
	Text        string
}

// Create parses Text, builds the entry and persists it. An empty message
// falls back to DefaultMessage.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Entry, error) {
	now := s.now()
	when, message, err := SplitTimeMessage(in.Text, now)
	if err != nil {
		return nil, err
	}
	e := s.newEntry(in.Owner, in.Destination, in.Mode, in.ImageRef, message, now)
	e.TriggerAt = when

	s.store.Add(ctx, e)
	s.log.Info("reminder created",
		logx.String("id", e.ShortID()),
		logx.Int64("owner", e.Owner),
		logx.Time("trigger_at", e.TriggerAt))
	return e, nil
}

// RecurringInput is a recurring reminder request. Descriptor is the rule
// ("2 weeks on monday"), At an optional wall-clock time, Until an optional
// end expression, Times an optional trigger budget (0 = unbounded).
type RecurringInput struct {
	Owner       int64
	Destination int64
	Mode        Mode
	ImageRef    string
	Descriptor  string
	Message     string
	At          string
	Until       string
	Times       int
}

// CreateRecurring parses the rule, seeds the first trigger and persists the
// entry. The first trigger carries At's wall-clock time, defaulting to 09:00.
func (s *Service) CreateRecurring(ctx context.Context, in RecurringInput) (*Entry, error) {
	now := s.now()

	rec, err := ParseRecurrence(in.Descriptor, now)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	hour, minute := defaultHour, 0
	if at := strings.TrimSpace(in.At); at != "" {
		tod, ok := parseTimeOfDay(strings.ToLower(at))
		if !ok {
			return nil, fmt.Errorf("%w: could not resolve time %q", ErrParse, in.At)
		}
		hour, minute = tod.hour, tod.minute
	}

	first, ok := rec.FirstTrigger(now, hour, minute)
	if !ok {
		return nil, fmt.Errorf("%w: rule yields no occurrence", ErrRecurrence)
	}

	message := in.Message
	if strings.TrimSpace(message) == "" {
		message = defaultRecurringMessage(rec.Kind)
	}

	e := s.newEntry(in.Owner, in.Destination, in.Mode, in.ImageRef, message, now)
	e.TriggerAt = first
	e.Recurrence = rec

	if in.Times < 0 {
		return nil, fmt.Errorf("%w: trigger count must be positive", ErrRecurrence)
	}
	e.MaxTriggers = in.Times

	if until := strings.TrimSpace(in.Until); until != "" {
		end, err := ParseTime(until, now)
		if err != nil {
			return nil, err
		}
		if end.Before(first) {
			return nil, fmt.Errorf("%w: end time is before the first occurrence", ErrParse)
		}
		e.EndAt = &end
	}

	s.store.Add(ctx, e)
	s.log.Info("recurring reminder created",
		logx.String("id", e.ShortID()),
		logx.Int64("owner", e.Owner),
		logx.String("rule", rec.Describe()),
		logx.Time("first_trigger", e.TriggerAt))
	return e, nil
}

// defaultRecurringMessage picks the fallback text for a recurring entry
// created without one.
func defaultRecurringMessage(k Kind) string {
	switch k {
	case KindDaily:
		return "Daily reminder"
	case KindWeekly:
		return "Weekly reminder"
	case KindMonthly:
		return "Monthly reminder"
	}
	return DefaultMessage
}

func (s *Service) newEntry(owner, dest int64, mode Mode, imageRef, message string, now time.Time) *Entry {
	if strings.TrimSpace(message) == "" {
		message = DefaultMessage
	}
	if mode == "" {
		mode = ModePersonal
	}
	return &Entry{
		ID:          uuid.NewString(),
		Owner:       owner,
		Destination: dest,
		Message:     message,
		CreatedAt:   now,
		Mode:        mode,
		ImageRef:    imageRef,
	}
}

// Cancel removes owner's entry by full or short id. Ids only resolve
// within the chat the reminder was created in.
func (s *Service) Cancel(ctx context.Context, owner, dest int64, id string) error {
	err := s.store.Cancel(ctx, strings.TrimSpace(id), owner, dest)
	if err == nil {
		s.log.Info("reminder cancelled", logx.String("id", id), logx.Int64("owner", owner))
	}
	return err
}

// List returns owner's upcoming entries in the given chat, soonest first,
// capped to the configured listing size.
func (s *Service) List(owner, dest int64) []*Entry {
	out := s.store.ListOwned(owner, dest, s.now())
	if len(out) > s.maxListed {
		out = out[:s.maxListed]
	}
	return out
}
