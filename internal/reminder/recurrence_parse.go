package reminder

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	intervalUnitRe = regexp.MustCompile(`^(?:(\d+)\s+)?(day|days|daily|week|weeks|weekly|month|months|monthly)$`)
	ordinalDayRe   = regexp.MustCompile(`^(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?$`)
	ordinalWordRe  = regexp.MustCompile(`^(?:the\s+)?(first|second|third|fourth|last)\s+([a-z]+)$`)
)

var ordinalsByName = map[string]WeekOrdinal{
	"first":  OrdinalFirst,
	"second": OrdinalSecond,
	"third":  OrdinalThird,
	"fourth": OrdinalFourth,
	"last":   OrdinalLast,
}

// ParseRecurrence turns a descriptor into a rule. One grammar covers all
// families:
//
//	[N] day|week|month [on <detail>]
//	<weekday>[, <weekday>...]
//
// Weekly details name weekdays ("on mon, wed and fri"); monthly details name
// a day ("on 15", "on the 15th", "on the last day") or an ordinal weekday
// ("on the first monday"). A bare weekday list is weekly shorthand. Weekly
// rules without weekdays and monthly rules without a detail are anchored to
// now (its weekday, its day of month).
func ParseRecurrence(desc string, now time.Time) (*Recurrence, error) {
	s := strings.ToLower(strings.TrimSpace(desc))
	s = strings.TrimPrefix(s, "every ")
	if s == "" {
		return nil, fmt.Errorf("%w: empty descriptor", ErrRecurrence)
	}

	head, detail := s, ""
	if i := strings.Index(s, " on "); i >= 0 {
		head, detail = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+4:])
	}

	if m := intervalUnitRe.FindStringSubmatch(head); m != nil {
		interval := 1
		if m[1] != "" {
			interval, _ = strconv.Atoi(m[1])
			if interval < 1 {
				return nil, fmt.Errorf("%w: interval must be at least 1", ErrRecurrence)
			}
		}
		switch {
		case strings.HasPrefix(m[2], "da"):
			if detail != "" {
				return nil, fmt.Errorf("%w: daily rules take no %q clause", ErrRecurrence, "on")
			}
			return &Recurrence{Kind: KindDaily, Interval: interval}, nil
		case strings.HasPrefix(m[2], "week"):
			return parseWeeklyDetail(interval, detail, now)
		default:
			return parseMonthlyDetail(interval, detail, now)
		}
	}

	// Bare weekday list: "monday" or "mon, wed, fri".
	if days, ok := parseWeekdayList(head); ok && detail == "" {
		return &Recurrence{Kind: KindWeekly, Interval: 1, Weekdays: days}, nil
	}

	return nil, fmt.Errorf("%w: could not resolve %q, try \"day\", \"2 weeks on monday\" or \"month on the 15th\"", ErrRecurrence, desc)
}

func parseWeeklyDetail(interval int, detail string, now time.Time) (*Recurrence, error) {
	if detail == "" {
		return &Recurrence{Kind: KindWeekly, Interval: interval, Weekdays: []time.Weekday{now.Weekday()}}, nil
	}
	days, ok := parseWeekdayList(detail)
	if !ok {
		return nil, fmt.Errorf("%w: unknown weekday in %q", ErrRecurrence, detail)
	}
	return &Recurrence{Kind: KindWeekly, Interval: interval, Weekdays: days}, nil
}

func parseMonthlyDetail(interval int, detail string, now time.Time) (*Recurrence, error) {
	if detail == "" {
		return &Recurrence{Kind: KindMonthly, Interval: interval, MonthDay: now.Day()}, nil
	}
	if detail == "last day" || detail == "the last day" {
		return &Recurrence{Kind: KindMonthly, Interval: interval, MonthDay: LastDayOfMonth}, nil
	}
	if m := ordinalDayRe.FindStringSubmatch(detail); m != nil {
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			return nil, fmt.Errorf("%w: day of month must be 1..31", ErrRecurrence)
		}
		return &Recurrence{Kind: KindMonthly, Interval: interval, MonthDay: day}, nil
	}
	if m := ordinalWordRe.FindStringSubmatch(detail); m != nil {
		ord := ordinalsByName[m[1]]
		wd, ok := weekdaysByName[m[2]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrRecurrence, m[2])
		}
		return &Recurrence{Kind: KindMonthly, Interval: interval, Ordinal: ord, OrdinalWeekday: wd}, nil
	}
	return nil, fmt.Errorf("%w: could not resolve monthly detail %q", ErrRecurrence, detail)
}

// parseWeekdayList accepts comma/and/space separated weekday names and
// returns them sorted and deduplicated.
func parseWeekdayList(s string) ([]time.Weekday, bool) {
	s = strings.ReplaceAll(s, ",", " ")
	fields := strings.Fields(s)
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, f := range fields {
		if f == "and" {
			continue
		}
		wd, ok := weekdaysByName[f]
		if !ok {
			return nil, false
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	if len(days) == 0 {
		return nil, false
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, true
}
