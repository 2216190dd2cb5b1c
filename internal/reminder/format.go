package reminder

import (
	"fmt"
	"strings"
	"time"
)

const listTimeLayout = "Mon, 02 Jan 2006 15:04"

// FormatEntry renders one listing line: short id, trigger time, message and,
// for recurring entries, the rule with any bounds.
func FormatEntry(e *Entry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s — %s", e.ShortID(), e.TriggerAt.Format(listTimeLayout), e.Message)
	if e.Recurrence != nil {
		fmt.Fprintf(&b, " (%s", e.Recurrence.Describe())
		if e.MaxTriggers > 0 {
			fmt.Fprintf(&b, ", %d of %d", e.TriggerCount, e.MaxTriggers)
		}
		if e.EndAt != nil {
			fmt.Fprintf(&b, ", until %s", e.EndAt.Format("02 Jan 2006"))
		}
		b.WriteString(")")
	}
	if in := e.TriggerAt.Sub(now); in > 0 {
		fmt.Fprintf(&b, " — in %s", FormatDuration(in))
	}
	return b.String()
}

// FormatList renders a capped listing for one owner.
func FormatList(entries []*Entry, now time.Time) string {
	if len(entries) == 0 {
		return "No reminders set."
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Your reminders:")
	for _, e := range entries {
		lines = append(lines, FormatEntry(e, now))
	}
	return strings.Join(lines, "\n")
}

// FormatDuration renders a duration in the two largest non-zero units,
// matching the granularity users schedule with.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "moments"
	}
	d = d.Round(time.Second)

	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	seconds := int(d/time.Second) % 60

	parts := make([]string, 0, 2)
	push := func(n int, unit string) {
		if n > 0 && len(parts) < 2 {
			label := unit
			if n != 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	push(days, "day")
	push(hours, "hour")
	push(minutes, "minute")
	push(seconds, "second")
	if len(parts) == 0 {
		return "moments"
	}
	return strings.Join(parts, " ")
}
