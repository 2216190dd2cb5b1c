package reminder

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseRecurrence(t *testing.T) {
	t.Parallel()

	// Mon Jan 15 2024.
	now := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		desc string
		want Recurrence
	}{
		{"day", "day", Recurrence{Kind: KindDaily, Interval: 1}},
		{"daily", "daily", Recurrence{Kind: KindDaily, Interval: 1}},
		{"every prefix stripped", "every day", Recurrence{Kind: KindDaily, Interval: 1}},
		{"n days", "3 days", Recurrence{Kind: KindDaily, Interval: 3}},
		{"week anchors to today", "week", Recurrence{Kind: KindWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday}}},
		{"weeks with days", "2 weeks on monday", Recurrence{Kind: KindWeekly, Interval: 2, Weekdays: []time.Weekday{time.Monday}}},
		{"weekday list sorted deduped", "week on fri, mon and mon", Recurrence{Kind: KindWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Friday}}},
		{"bare weekday", "monday", Recurrence{Kind: KindWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday}}},
		{"bare weekday list", "mon, wed, fri", Recurrence{Kind: KindWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}},
		{"month anchors to today", "month", Recurrence{Kind: KindMonthly, Interval: 1, MonthDay: 15}},
		{"month on day", "month on 20", Recurrence{Kind: KindMonthly, Interval: 1, MonthDay: 20}},
		{"month on ordinal suffix day", "month on the 3rd", Recurrence{Kind: KindMonthly, Interval: 1, MonthDay: 3}},
		{"month on last day", "month on the last day", Recurrence{Kind: KindMonthly, Interval: 1, MonthDay: LastDayOfMonth}},
		{"month on ordinal weekday", "month on the first monday", Recurrence{Kind: KindMonthly, Interval: 1, Ordinal: OrdinalFirst, OrdinalWeekday: time.Monday}},
		{"months on last weekday", "2 months on the last friday", Recurrence{Kind: KindMonthly, Interval: 2, Ordinal: OrdinalLast, OrdinalWeekday: time.Friday}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRecurrence(tc.desc, now)
			if err != nil {
				t.Fatalf("ParseRecurrence(%q): %v", tc.desc, err)
			}
			if !reflect.DeepEqual(*got, tc.want) {
				t.Fatalf("ParseRecurrence(%q) = %+v, want %+v", tc.desc, *got, tc.want)
			}
			if err := got.Validate(); err != nil {
				t.Fatalf("parsed rule fails Validate: %v", err)
			}
		})
	}
}

func TestParseRecurrenceRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		desc string
	}{
		{"empty", ""},
		{"unknown unit", "fortnight"},
		{"daily with on clause", "day on monday"},
		{"zero interval", "0 days"},
		{"weekly unknown day", "week on moonday"},
		{"monthly day out of range", "month on 32"},
		{"monthly garbage detail", "month on whenever"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseRecurrence(tc.desc, now); !errors.Is(err, ErrRecurrence) {
				t.Fatalf("ParseRecurrence(%q) err = %v, want ErrRecurrence", tc.desc, err)
			}
		})
	}
}
