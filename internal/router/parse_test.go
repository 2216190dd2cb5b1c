package router

import (
	"testing"
	"time"
)

func TestSplitRecurring(t *testing.T) {
	t.Parallel()

	// Mon Jan 1 2024.
	now := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input string
		want  recurringArgs
	}{
		{
			"rule and message",
			"day drink water",
			recurringArgs{descriptor: "day", message: "drink water"},
		},
		{
			"every prefix",
			"every day drink water",
			recurringArgs{descriptor: "day", message: "drink water"},
		},
		{
			"multi word rule",
			"2 weeks on monday standup",
			recurringArgs{descriptor: "2 weeks on monday", message: "standup"},
		},
		{
			"at clause",
			"day at 9am stretch",
			recurringArgs{descriptor: "day", at: "9am", message: "stretch"},
		},
		{
			"at clause with space",
			"day at 9 am stretch",
			recurringArgs{descriptor: "day", at: "9 am", message: "stretch"},
		},
		{
			"until clause",
			"day until dec 25 advent",
			recurringArgs{descriptor: "day", until: "dec 25", message: "advent"},
		},
		{
			"for clause",
			"day for 3 times hydrate",
			recurringArgs{descriptor: "day", times: 3, message: "hydrate"},
		},
		{
			"all clauses",
			"mon, wed, fri at 8:30 until dec 25 for 10 times take pills",
			recurringArgs{descriptor: "mon, wed, fri", at: "8:30", until: "dec 25", times: 10, message: "take pills"},
		},
		{
			"message starting with at",
			"day at the gym",
			recurringArgs{descriptor: "day", message: "at the gym"},
		},
		{
			"weekday list rule",
			"mon wed water plants",
			recurringArgs{descriptor: "mon wed", message: "water plants"},
		},
		{
			"monthly ordinal rule",
			"month on the first monday report",
			recurringArgs{descriptor: "month on the first monday", message: "report"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := splitRecurring(tc.input, now)
			if err != nil {
				t.Fatalf("splitRecurring(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("splitRecurring(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitRecurringRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	for _, input := range []string{"", "whenever you like", "every"} {
		if _, err := splitRecurring(input, now); err == nil {
			t.Fatalf("splitRecurring(%q) succeeded, want error", input)
		}
	}
}

func TestSplitBroadcast(t *testing.T) {
	t.Parallel()

	img, rest, recurring := splitBroadcast("img:AgACAgQ in 2 hours maintenance window")
	if img != "AgACAgQ" || rest != "in 2 hours maintenance window" || recurring {
		t.Fatalf("got img=%q rest=%q recurring=%v", img, rest, recurring)
	}

	img, rest, recurring = splitBroadcast("every day at 9am standup")
	if img != "" || !recurring || rest != "every day at 9am standup" {
		t.Fatalf("got img=%q rest=%q recurring=%v", img, rest, recurring)
	}
}
