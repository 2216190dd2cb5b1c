package reminder

import "time"

// Mode selects how an entry is delivered.
type Mode string

const (
	// ModePersonal pings the owner when the reminder fires.
	ModePersonal Mode = "personal"
	// ModeBroadcast posts to the destination without pinging anyone and may
	// carry an image attachment.
	ModeBroadcast Mode = "broadcast"
)

// DefaultMessage is used when the user supplied no text.
const DefaultMessage = "Reminder"

// Entry is one scheduled reminder.
//
// TriggerAt, TriggerCount and Retired are mutated only by the scheduler's
// Advance step; everything else is immutable after Add.
type Entry struct {
	ID          string    `json:"id"`
	Owner       int64     `json:"owner"`
	Destination int64     `json:"destination"`
	TriggerAt   time.Time `json:"trigger_at"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`

	Mode     Mode   `json:"mode"`
	ImageRef string `json:"image_ref,omitempty"` // broadcast mode only

	Recurrence *Recurrence `json:"recurrence,omitempty"` // nil = one-shot

	TriggerCount int        `json:"trigger_count"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	MaxTriggers  int        `json:"max_triggers,omitempty"` // 0 = unbounded

	Retired bool `json:"retired"`
}

// Recurring reports whether the entry repeats.
func (e *Entry) Recurring() bool { return e.Recurrence != nil }

// Active reports whether the entry can still fire: not retired, not a spent
// one-shot, and within its optional end/max bounds.
func (e *Entry) Active(now time.Time) bool {
	if e.Retired {
		return false
	}
	if e.Recurrence == nil && e.TriggerCount > 0 {
		return false
	}
	if e.EndAt != nil && !e.EndAt.After(now) {
		return false
	}
	if e.MaxTriggers > 0 && e.TriggerCount >= e.MaxTriggers {
		return false
	}
	return true
}

// DueAt reports whether the entry should fire at now.
func (e *Entry) DueAt(now time.Time) bool {
	return e.Active(now) && !e.TriggerAt.After(now)
}

// ShortID returns the id prefix shown in lists (full uuids are unwieldy in chat).
func (e *Entry) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}

// stateDoc is the persisted layout: one document holding every entry.
type stateDoc struct {
	Reminders []*Entry `json:"reminders"`
}
