package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind selects the recurrence family.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// WeekOrdinal positions a weekday within a month for monthly ordinal rules.
// Last is a scan back from the end of the month.
type WeekOrdinal int

const (
	OrdinalFirst  WeekOrdinal = 1
	OrdinalSecond WeekOrdinal = 2
	OrdinalThird  WeekOrdinal = 3
	OrdinalFourth WeekOrdinal = 4
	OrdinalLast   WeekOrdinal = -1
)

// LastDayOfMonth is the sentinel MonthDay meaning "last calendar day".
const LastDayOfMonth = -1

// Recurrence is a tagged union: Kind picks the family, the remaining fields
// apply per family. Monthly rules carry either MonthDay or the Ordinal pair,
// never both.
type Recurrence struct {
	Kind     Kind `json:"kind"`
	Interval int  `json:"interval"`

	// Weekly only. Sorted, deduplicated.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`

	// Monthly, day-of-month form. 1..31 or LastDayOfMonth; 0 means unset.
	MonthDay int `json:"month_day,omitempty"`

	// Monthly, ordinal form. Ordinal 0 means unset.
	Ordinal        WeekOrdinal  `json:"ordinal,omitempty"`
	OrdinalWeekday time.Weekday `json:"ordinal_weekday,omitempty"`
}

// Validate checks structural invariants. A stored entry with an invalid
// recurrence is a bug, not user error, so callers treat this as internal.
func (r *Recurrence) Validate() error {
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrRecurrence)
	}
	switch r.Kind {
	case KindDaily:
	case KindWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly rule needs at least one weekday", ErrRecurrence)
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return fmt.Errorf("%w: invalid weekday %d", ErrRecurrence, wd)
			}
		}
	case KindMonthly:
		hasDay := r.MonthDay != 0
		hasOrdinal := r.Ordinal != 0
		if hasDay == hasOrdinal {
			return fmt.Errorf("%w: monthly rule needs exactly one of day-of-month or ordinal weekday", ErrRecurrence)
		}
		if hasDay && (r.MonthDay < LastDayOfMonth || r.MonthDay == 0 || r.MonthDay > 31) {
			return fmt.Errorf("%w: day of month must be 1..31 or last", ErrRecurrence)
		}
		if hasOrdinal {
			switch r.Ordinal {
			case OrdinalFirst, OrdinalSecond, OrdinalThird, OrdinalFourth, OrdinalLast:
			default:
				return fmt.Errorf("%w: invalid week ordinal %d", ErrRecurrence, r.Ordinal)
			}
			if r.OrdinalWeekday < time.Sunday || r.OrdinalWeekday > time.Saturday {
				return fmt.Errorf("%w: invalid weekday %d", ErrRecurrence, r.OrdinalWeekday)
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrRecurrence, r.Kind)
	}
	return nil
}

// NextTrigger computes the occurrence after current, preserving the
// time-of-day of current. ok is false only for rules that Validate rejects.
func (r *Recurrence) NextTrigger(current time.Time) (time.Time, bool) {
	switch r.Kind {
	case KindDaily:
		return current.AddDate(0, 0, r.Interval), true
	case KindWeekly:
		return r.nextWeekly(current)
	case KindMonthly:
		return r.nextMonthly(current)
	}
	return time.Time{}, false
}

// nextWeekly picks the smallest configured weekday strictly after the current
// weekday within the same week; when none remains, it jumps interval weeks
// forward to the earliest configured weekday.
func (r *Recurrence) nextWeekly(current time.Time) (time.Time, bool) {
	if len(r.Weekdays) == 0 {
		return time.Time{}, false
	}
	days := append([]time.Weekday(nil), r.Weekdays...)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	cur := current.Weekday()
	for _, wd := range days {
		if wd > cur {
			return current.AddDate(0, 0, int(wd-cur)), true
		}
	}
	toFirst := int(days[0]-cur+7) % 7
	if toFirst == 0 {
		toFirst = 7
	}
	return current.AddDate(0, 0, toFirst+(r.Interval-1)*7), true
}

// nextMonthly advances whole months without time.AddDate, which would
// normalize Jan 31 + 1 month into March. Months are stepped manually and the
// day resolved against the target month's length.
func (r *Recurrence) nextMonthly(current time.Time) (time.Time, bool) {
	year, month := current.Year(), current.Month()
	m := int(month) - 1 + r.Interval
	year += m / 12
	month = time.Month(m%12 + 1)

	day, ok := r.resolveMonthlyDay(year, month, current.Location())
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, month, day,
		current.Hour(), current.Minute(), current.Second(), 0, current.Location()), true
}

// resolveMonthlyDay maps the rule onto a concrete day of the given month.
func (r *Recurrence) resolveMonthlyDay(year int, month time.Month, loc *time.Location) (int, bool) {
	switch {
	case r.MonthDay == LastDayOfMonth:
		return daysIn(year, month), true
	case r.MonthDay > 0:
		return min(r.MonthDay, daysIn(year, month)), true
	case r.Ordinal != 0:
		return ordinalWeekdayIn(year, month, r.Ordinal, r.OrdinalWeekday, loc), true
	}
	return 0, false
}

// ordinalWeekdayIn finds the Nth (or last) given weekday of a month. An
// ordinal that overflows the month (a fifth Monday that does not exist) rolls
// back one week, so Fourth and an overflowing Fourth agree.
func ordinalWeekdayIn(year int, month time.Month, ord WeekOrdinal, wd time.Weekday, loc *time.Location) int {
	last := daysIn(year, month)
	if ord == OrdinalLast {
		for day := last; day >= 1; day-- {
			if time.Date(year, month, day, 0, 0, 0, 0, loc).Weekday() == wd {
				return day
			}
		}
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	firstMatch := 1 + int(wd-first.Weekday()+7)%7
	day := firstMatch + (int(ord)-1)*7
	if day > last {
		day -= 7
	}
	return day
}

// FirstTrigger seeds a new recurring entry: the earliest occurrence at or
// after now carrying the given wall-clock time. Monthly rules look ahead two
// months; if neither month yields a future instant the result falls back to
// day 1 of next month.
func (r *Recurrence) FirstTrigger(now time.Time, hour, minute int) (time.Time, bool) {
	at := func(day time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	}

	switch r.Kind {
	case KindDaily:
		t := at(now)
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, true

	case KindWeekly:
		if len(r.Weekdays) == 0 {
			return time.Time{}, false
		}
		var best time.Time
		for _, wd := range r.Weekdays {
			days := int(wd-now.Weekday()+7) % 7
			cand := at(now.AddDate(0, 0, days))
			if !cand.After(now) {
				// Today's slot already passed: next cycle for this weekday.
				cand = cand.AddDate(0, 0, 7*r.Interval)
			}
			if best.IsZero() || cand.Before(best) {
				best = cand
			}
		}
		return best, true

	case KindMonthly:
		year, month := now.Year(), now.Month()
		for i := 0; i < 2; i++ {
			day, ok := r.resolveMonthlyDay(year, month, now.Location())
			if !ok {
				return time.Time{}, false
			}
			cand := time.Date(year, month, day, hour, minute, 0, 0, now.Location())
			if cand.After(now) {
				return cand, true
			}
			year, month = nextMonth(year, month)
		}
		// Degenerate rule: anchor to the first of next month.
		y, m := nextMonth(now.Year(), now.Month())
		return time.Date(y, m, 1, hour, minute, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// daysIn returns the number of days in a month; day 0 of the next month is
// the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Describe renders the rule for user-facing listings.
func (r *Recurrence) Describe() string {
	every := func(unit string) string {
		if r.Interval == 1 {
			return "every " + unit
		}
		return fmt.Sprintf("every %d %ss", r.Interval, unit)
	}
	switch r.Kind {
	case KindDaily:
		return every("day")
	case KindWeekly:
		names := make([]string, 0, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			names = append(names, wd.String())
		}
		return every("week") + " on " + strings.Join(names, ", ")
	case KindMonthly:
		switch {
		case r.MonthDay == LastDayOfMonth:
			return every("month") + " on the last day"
		case r.MonthDay > 0:
			return fmt.Sprintf("%s on day %d", every("month"), r.MonthDay)
		default:
			return fmt.Sprintf("%s on the %s %s", every("month"), r.Ordinal.String(), r.OrdinalWeekday)
		}
	}
	return string(r.Kind)
}

func (o WeekOrdinal) String() string {
	switch o {
	case OrdinalFirst:
		return "first"
	case OrdinalSecond:
		return "second"
	case OrdinalThird:
		return "third"
	case OrdinalFourth:
		return "fourth"
	case OrdinalLast:
		return "last"
	}
	return fmt.Sprintf("ordinal(%d)", int(o))
}
