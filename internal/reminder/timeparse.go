package reminder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default hour for date-only expressions ("tomorrow", "dec 25").
const defaultHour = 9

const maxRelative = 365 * 24 * time.Hour

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Relative-form unit tokens. Bare letters need the trailing word boundary so
// "2 months" never reads as minutes.
var (
	relDaysRe    = regexp.MustCompile(`(\d+)\s*(?:days?|d)\b`)
	relHoursRe   = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?|h)\b`)
	relMinutesRe = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m)\b`)
	relSecondsRe = regexp.MustCompile(`(\d+)\s*(?:seconds?|secs?|s)\b`)
)

var (
	monthDayRe    = regexp.MustCompile(`^(?:([a-z]+)\s+(\d{1,2})|(\d{1,2})\s+([a-z]+))$`)
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{1,4}))?$`)
	time12Re      = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
	time24Re      = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// Layouts for the last-resort generic parse. Input is lowercased, so only
// numeric layouts apply here; named months are handled by parseDatePart.
var genericLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04:05",
}

// ParseTime resolves a free-text time expression against now and returns a
// strictly future instant (an instant equal to now is allowed; the scheduler
// picks it up on the next tick).
//
// Two grammars are accepted:
//   - relative: "in 2 hours 30 minutes", "in 1d 5h"
//   - absolute: "tomorrow", "friday at 3pm", "dec 25", "12/25 at 14:30"
//
// Results that would land in the past are rolled forward by the smallest unit
// that makes them future; the rolling rule differs per branch (next hour for
// today, next day for a passed time-of-day, next year for a passed date) and
// is documented on each helper.
func ParseTime(expr string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty expression", ErrParse)
	}
	if rest, ok := strings.CutPrefix(s, "in "); ok {
		return parseRelative(rest, now)
	}
	return parseAbsolute(s, now)
}

// parseRelative sums every matched <N><unit> token, in any order.
func parseRelative(s string, now time.Time) (time.Time, error) {
	var total time.Duration
	matched := false
	for _, u := range []struct {
		re   *regexp.Regexp
		unit time.Duration
	}{
		{relDaysRe, 24 * time.Hour},
		{relHoursRe, time.Hour},
		{relMinutesRe, time.Minute},
		{relSecondsRe, time.Second},
	} {
		for _, m := range u.re.FindAllStringSubmatch(s, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			total += time.Duration(n) * u.unit
			matched = true
		}
	}

	if !matched {
		return time.Time{}, fmt.Errorf("%w: no time values found, use e.g. \"in 2 hours 30 minutes\"", ErrParse)
	}
	if total < time.Second {
		return time.Time{}, fmt.Errorf("%w: must be at least 1 second ahead", ErrParse)
	}
	if total > maxRelative {
		return time.Time{}, fmt.Errorf("%w: cannot be more than a year ahead", ErrParse)
	}
	return now.Add(total), nil
}

func parseAbsolute(s string, now time.Time) (time.Time, error) {
	// Date/time pair split on " at " or "@".
	if t, ok := parseDateAndTime(s, now); ok {
		return t, nil
	}
	// Last resort: fixed calendar layouts.
	if t, ok := parseGeneric(s, now); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: could not resolve %q, try \"tomorrow\", \"dec 25\", \"tomorrow at 3pm\" or \"in 2 hours\"", ErrParse, s)
}

// splitAtSeparator cuts the expression at the first " at " or "@".
func splitAtSeparator(s string) (datePart, timePart string, found bool) {
	if i := strings.Index(s, " at "); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+4:]), true
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
	}
	return s, "", false
}

func parseDateAndTime(s string, now time.Time) (time.Time, bool) {
	datePart, timePart, split := splitAtSeparator(s)

	if split {
		day, ok := parseDatePart(datePart, now)
		if !ok {
			return time.Time{}, false
		}
		tod, ok := parseTimeOfDay(timePart)
		if !ok {
			return time.Time{}, false
		}
		result := tod.on(day)
		// Same date but the time already passed: move to the next day.
		if !result.After(now) {
			result = result.AddDate(0, 0, 1)
		}
		return result, true
	}

	// Whole expression as a date.
	if day, ok := parseDatePart(s, now); ok {
		switch s {
		case "today":
			// Next whole hour after now.
			t := day.Add(time.Duration(now.Hour()+1) * time.Hour)
			if !t.After(now) {
				t = t.Add(time.Hour)
			}
			return t, true
		default:
			result := day.Add(defaultHour * time.Hour)
			// A date matching today whose default hour already passed
			// means next year's date, same as any other passed date.
			if !result.After(now) {
				result = result.AddDate(1, 0, 0)
			}
			return result, true
		}
	}

	// Whole expression as a time-of-day, anchored to today; if that instant
	// already passed, tomorrow.
	if tod, ok := parseTimeOfDay(s); ok {
		result := tod.on(startOfDay(now))
		if !result.After(now) {
			result = result.AddDate(0, 0, 1)
		}
		return result, true
	}

	return time.Time{}, false
}

// parseDatePart resolves a date expression to midnight of the target day.
// Resolution order: tomorrow/today literals, weekday names, "<month> <day>"
// (either order), numeric M/D[/Y]. Passed calendar dates roll to next year;
// a weekday matching today rolls a full week.
func parseDatePart(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	today := startOfDay(now)

	switch s {
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "today":
		return today, true
	}

	if wd, ok := weekdaysByName[s]; ok {
		days := int((wd - now.Weekday() + 7) % 7)
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days), true
	}

	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		monthStr := m[1] + m[4]
		dayStr := m[2] + m[3]
		month, ok := monthsByName[monthStr]
		if !ok {
			return time.Time{}, false
		}
		day, err := strconv.Atoi(dayStr)
		if err != nil {
			return time.Time{}, false
		}
		date, ok := makeDate(now.Year(), month, day, now.Location())
		if !ok {
			return time.Time{}, false
		}
		if date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
		return date, true
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			y, _ := strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
			year = y
		}
		if month < 1 || month > 12 {
			return time.Time{}, false
		}
		date, ok := makeDate(year, time.Month(month), day, now.Location())
		if !ok {
			return time.Time{}, false
		}
		if date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
		return date, true
	}

	return time.Time{}, false
}

// timeOfDay is a resolved wall-clock time.
type timeOfDay struct {
	hour, minute, second int
}

func (t timeOfDay) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.minute, t.second, 0, day.Location())
}

// parseTimeOfDay resolves a time expression. Resolution order: 12-hour
// ("3pm", "3:30 pm"), 24-hour ("15:30", "15:30:45"), bare hour ("15").
// 12 AM maps to hour 0; 12 PM stays 12.
func parseTimeOfDay(s string) (timeOfDay, bool) {
	s = strings.TrimSpace(s)

	if m := time12Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour == 12 {
			hour = 0
		}
		if m[3] == "pm" {
			hour += 12
		}
		if hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
			return timeOfDay{hour: hour, minute: minute}, true
		}
		return timeOfDay{}, false
	}

	if m := time24Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		second := 0
		if m[3] != "" {
			second, _ = strconv.Atoi(m[3])
		}
		if hour < 24 && minute < 60 && second < 60 {
			return timeOfDay{hour: hour, minute: minute, second: second}, true
		}
		return timeOfDay{}, false
	}

	if hour, err := strconv.Atoi(s); err == nil && hour >= 0 && hour <= 23 {
		return timeOfDay{hour: hour}, true
	}

	return timeOfDay{}, false
}

// ParseClockTime resolves a wall-clock expression ("3pm", "15:30", "9").
func ParseClockTime(s string) (hour, minute int, ok bool) {
	tod, ok := parseTimeOfDay(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return 0, 0, false
	}
	return tod.hour, tod.minute, true
}

// parseGeneric tries fixed calendar layouts. A date-only result defaults to
// 09:00; a past result rolls forward (same date: next hour, otherwise next
// year).
func parseGeneric(s string, now time.Time) (time.Time, bool) {
	for _, layout := range genericLayouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err != nil {
			continue
		}
		if layout == "15:04:05" {
			// Time-only: anchor to today.
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			t = t.Add(defaultHour * time.Hour)
		}
		if !t.After(now) {
			if sameDate(t, now) {
				t = now.Add(time.Hour)
			} else {
				t = t.AddDate(1, 0, 0)
			}
		}
		return t, true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var (
	relPairNumRe   = regexp.MustCompile(`^\d+$`)
	relPairUnitRe  = regexp.MustCompile(`^(?:days?|d|hours?|hrs?|h|minutes?|mins?|m|seconds?|secs?|s)$`)
	relCombinedRe  = regexp.MustCompile(`^\d+(?:days?|d|hours?|hrs?|h|minutes?|mins?|m|seconds?|secs?|s)$`)
	maxPrefixWords = 6
)

// SplitTimeMessage cuts free-form input into a time expression and the
// message that follows it. Relative input ("in 2 hours call mom") consumes
// number/unit tokens until the first token that is neither; absolute input
// takes the longest token prefix that ParseTime accepts, so "friday at 3pm
// standup" binds the time through "3pm".
func SplitTimeMessage(input string, now time.Time) (time.Time, string, error) {
	tokens := strings.Fields(strings.TrimSpace(input))
	if len(tokens) == 0 {
		return time.Time{}, "", fmt.Errorf("%w: empty input", ErrParse)
	}

	if strings.EqualFold(tokens[0], "in") {
		return splitRelative(tokens, now)
	}

	limit := min(len(tokens), maxPrefixWords)
	for k := limit; k >= 1; k-- {
		expr := strings.Join(tokens[:k], " ")
		when, err := ParseTime(expr, now)
		if err == nil {
			return when, strings.Join(tokens[k:], " "), nil
		}
	}
	return time.Time{}, "", fmt.Errorf("%w: no time expression at the start of %q", ErrParse, input)
}

// splitRelative consumes "in" plus every leading number/unit token; the rest
// is the message. Tokens are either "<N> <unit>" pairs or fused "<N><unit>".
func splitRelative(tokens []string, now time.Time) (time.Time, string, error) {
	i := 1
scan:
	for i < len(tokens) {
		t := strings.ToLower(tokens[i])
		switch {
		case relCombinedRe.MatchString(t):
			i++
		case relPairNumRe.MatchString(t) && i+1 < len(tokens) && relPairUnitRe.MatchString(strings.ToLower(tokens[i+1])):
			i += 2
		default:
			break scan
		}
	}
	if i == 1 {
		return time.Time{}, "", fmt.Errorf("%w: no time values after \"in\"", ErrParse)
	}
	when, err := ParseTime(strings.Join(tokens[:i], " "), now)
	if err != nil {
		return time.Time{}, "", err
	}
	return when, strings.Join(tokens[i:], " "), nil
}

// makeDate builds a date and rejects out-of-range days (time.Date would
// silently normalize Feb 30 into March).
func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
