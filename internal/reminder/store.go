package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"rembot/internal/storage"
	"rembot/pkg/logx"
)

// ErrNotFound reports a cancel or lookup against an unknown or foreign entry.
var ErrNotFound = errors.New("reminder not found")

// Store holds the reminder set in memory and mirrors it into a byte-document
// backend as one JSON document. Add and Cancel persist synchronously; Advance
// and Retire only mark the store dirty so the scheduler can batch one write
// per tick via Flush.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	backend storage.Store
	log     logx.Logger
	dirty   bool
}

func NewStore(backend storage.Store, log logx.Logger) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		backend: backend,
		log:     log.With(logx.String("component", "reminder.store")),
	}
}

// Load replaces the in-memory set with the persisted document. Triggered
// one-shot entries older than retention and retired recurring entries are
// pruned on the way in. A missing or corrupt document yields an empty store;
// corruption is logged, never fatal.
func (s *Store) Load(ctx context.Context, now time.Time, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	if s.backend == nil {
		return nil
	}

	raw, found, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	var doc stateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("state document corrupt, starting empty", logx.Err(err))
		return nil
	}

	pruned := 0
	for _, e := range doc.Reminders {
		if e == nil || e.ID == "" {
			pruned++
			continue
		}
		if s.expired(e, now, retention) {
			pruned++
			continue
		}
		s.entries[e.ID] = e
	}
	if pruned > 0 {
		s.dirty = true
	}
	s.log.Info("state loaded",
		logx.Int("reminders", len(s.entries)),
		logx.Int("pruned", pruned))
	return nil
}

// expired reports entries that no longer need to be kept: stale triggered
// one-shots past retention, and retired or exhausted recurring entries.
func (s *Store) expired(e *Entry, now time.Time, retention time.Duration) bool {
	if e.Recurrence == nil {
		return e.TriggerCount > 0 && now.Sub(e.TriggerAt) > retention
	}
	return !e.Active(now)
}

// Add stores the entry and persists immediately. A persistence failure is
// logged and leaves the store dirty for a later retry; the entry is still
// accepted.
func (s *Store) Add(ctx context.Context, e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	s.dirty = true
	s.persistLocked(ctx)
}

// Cancel removes the entry if it exists and belongs to owner in the given
// destination, then persists. Entries created in another chat are invisible
// here, even by full id.
func (s *Store) Cancel(ctx context.Context, id string, owner, dest int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.resolveLocked(id, dest)
	if !ok || e.Owner != owner {
		return ErrNotFound
	}
	delete(s.entries, e.ID)
	s.dirty = true
	s.persistLocked(ctx)
	return nil
}

// resolveLocked finds an entry by full id or by its short prefix form,
// considering only entries created in dest. A short id matching more than
// one entry resolves to none.
func (s *Store) resolveLocked(id string, dest int64) (*Entry, bool) {
	if e, ok := s.entries[id]; ok && e.Destination == dest {
		return e, true
	}
	var match *Entry
	for _, e := range s.entries {
		if e.Destination == dest && e.ShortID() == id {
			if match != nil {
				return nil, false
			}
			match = e
		}
	}
	return match, match != nil
}

// ListOwned returns owner's active entries in the given destination,
// ordered by trigger time.
func (s *Store) ListOwned(owner, dest int64, now time.Time) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Entry
	for _, e := range s.entries {
		if e.Owner == owner && e.Destination == dest && e.Active(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

// Due returns every active entry whose trigger time is at or before now.
func (s *Store) Due(now time.Time) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Entry
	for _, e := range s.entries {
		if e.Active(now) && e.DueAt(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

// Advance moves a fired entry to its next state without persisting. One-shot
// entries retire and are kept for the retention window. Recurring
// entries retire once their trigger budget is spent or the next occurrence
// would pass their end time; otherwise the trigger time moves forward and
// the count increments.
func (s *Store) Advance(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	s.dirty = true

	if e.Recurrence == nil {
		e.TriggerCount++
		e.Retired = true
		return
	}

	if e.MaxTriggers > 0 && e.TriggerCount >= e.MaxTriggers {
		e.Retired = true
		return
	}
	next, ok := e.Recurrence.NextTrigger(e.TriggerAt)
	if !ok {
		s.log.Error("recurrence cannot advance, retiring entry", logx.String("id", e.ID))
		e.Retired = true
		return
	}
	if e.EndAt != nil && next.After(*e.EndAt) {
		e.Retired = true
		return
	}
	e.TriggerAt = next
	e.TriggerCount++
}

// Flush writes the document if anything changed since the last write.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.persistLocked(ctx)
	}
}

// Len reports the number of entries currently held, active or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Prune drops entries that fell out of the retention window and persists if
// anything changed. Runs from the scheduler's maintenance job.
func (s *Store) Prune(ctx context.Context, now time.Time, retention time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now, retention) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("pruned expired reminders", logx.Int("removed", removed))
		s.dirty = true
		s.persistLocked(ctx)
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.backend == nil {
		s.dirty = false
		return
	}

	doc := stateDoc{Reminders: make([]*Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		doc.Reminders = append(doc.Reminders, e)
	}
	sort.Slice(doc.Reminders, func(i, j int) bool {
		return doc.Reminders[i].CreatedAt.Before(doc.Reminders[j].CreatedAt)
	})

	raw, err := json.Marshal(doc)
	if err != nil {
		s.log.Error("state marshal failed", logx.Err(err))
		return
	}
	if err := s.backend.Save(ctx, raw); err != nil {
		s.log.Error("state save failed, will retry on next change", logx.Err(err))
		return
	}
	s.dirty = false
}
