package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmhodges/clock"

	"rembot/pkg/logx"
)

func newTestService(t *testing.T, at time.Time) (*Service, *Store, clock.FakeClock) {
	t.Helper()
	store := NewStore(&memBackend{}, logx.Nop())
	clk := clock.NewFake()
	clk.Set(at)
	svc := NewService(store, clk, time.UTC, 10, logx.Nop())
	return svc, store, clk
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t, baseNow)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreateInput{
		Owner:       7,
		Destination: 7,
		Text:        "in 2 hours call mom",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := baseNow.Add(2 * time.Hour); !e.TriggerAt.Equal(want) {
		t.Fatalf("trigger_at = %v, want %v", e.TriggerAt, want)
	}
	if e.Message != "call mom" {
		t.Fatalf("message = %q, want %q", e.Message, "call mom")
	}
	if e.Mode != ModePersonal {
		t.Fatalf("mode = %q, want personal", e.Mode)
	}
	if e.ID == "" || e.Recurring() {
		t.Fatalf("unexpected entry shape: %+v", e)
	}

	if due := store.Due(baseNow.Add(2 * time.Hour)); len(due) != 1 || due[0].ID != e.ID {
		t.Fatalf("entry not due at its trigger time: %+v", due)
	}
}

func TestServiceCreateDefaultMessage(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	e, err := svc.Create(context.Background(), CreateInput{Owner: 1, Destination: 1, Text: "in 10 minutes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Message != DefaultMessage {
		t.Fatalf("message = %q, want %q", e.Message, DefaultMessage)
	}
}

func TestServiceRecurringDefaultMessage(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	ctx := context.Background()

	cases := []struct {
		descriptor string
		want       string
	}{
		{"day", "Daily reminder"},
		{"week on friday", "Weekly reminder"},
		{"month on the 15th", "Monthly reminder"},
	}
	for _, tc := range cases {
		e, err := svc.CreateRecurring(ctx, RecurringInput{Owner: 1, Destination: 1, Descriptor: tc.descriptor})
		if err != nil {
			t.Fatalf("CreateRecurring(%q): %v", tc.descriptor, err)
		}
		if e.Message != tc.want {
			t.Fatalf("message for %q = %q, want %q", tc.descriptor, e.Message, tc.want)
		}
	}
}

func TestServiceCreateParseError(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t, baseNow)
	if _, err := svc.Create(context.Background(), CreateInput{Owner: 1, Destination: 1, Text: "whenever feels right"}); !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	if store.Len() != 0 {
		t.Fatal("failed create left an entry behind")
	}
}

func TestServiceCreateRecurring(t *testing.T) {
	t.Parallel()

	// Mon Jan 1 2024.
	svc, _, _ := newTestService(t, baseNow)
	ctx := context.Background()

	e, err := svc.CreateRecurring(ctx, RecurringInput{
		Owner:       7,
		Destination: 7,
		Descriptor:  "week on friday",
		Message:     "weekly report",
		At:          "3pm",
		Times:       4,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if want := time.Date(2024, time.January, 5, 15, 0, 0, 0, time.UTC); !e.TriggerAt.Equal(want) {
		t.Fatalf("first trigger = %v, want %v", e.TriggerAt, want)
	}
	if e.MaxTriggers != 4 || e.EndAt != nil {
		t.Fatalf("bounds = max %d end %v", e.MaxTriggers, e.EndAt)
	}
	if !e.Recurring() || e.Recurrence.Kind != KindWeekly {
		t.Fatalf("recurrence = %+v", e.Recurrence)
	}
}

func TestServiceCreateRecurringUntil(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	e, err := svc.CreateRecurring(context.Background(), RecurringInput{
		Owner:       1,
		Destination: 1,
		Descriptor:  "day",
		Message:     "stretch",
		Until:       "jan 10",
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if e.EndAt == nil {
		t.Fatal("EndAt not set")
	}
	if want := time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC); !e.EndAt.Equal(want) {
		t.Fatalf("EndAt = %v, want %v", e.EndAt, want)
	}

	_, err = svc.CreateRecurring(context.Background(), RecurringInput{
		Owner:       1,
		Destination: 1,
		Descriptor:  "day",
		Until:       "in 30 seconds",
	})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("end before first occurrence err = %v, want ErrParse", err)
	}
}

func TestServiceCreateRecurringBadDescriptor(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	_, err := svc.CreateRecurring(context.Background(), RecurringInput{
		Owner:       1,
		Destination: 1,
		Descriptor:  "whenever",
	})
	if !errors.Is(err, ErrRecurrence) {
		t.Fatalf("err = %v, want ErrRecurrence", err)
	}
}

func TestServiceListCapsAndOrders(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	ctx := context.Background()

	for i := 12; i >= 1; i-- {
		_, err := svc.Create(ctx, CreateInput{
			Owner:       7,
			Destination: 7,
			Text:        fmt.Sprintf("in %d hours task %d", i, i),
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	// Another owner's entry stays invisible.
	if _, err := svc.Create(ctx, CreateInput{Owner: 8, Destination: 8, Text: "in 1 hours other"}); err != nil {
		t.Fatalf("Create other owner: %v", err)
	}

	got := svc.List(7, 7)
	if len(got) != 10 {
		t.Fatalf("listed %d, want 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TriggerAt.Before(got[i-1].TriggerAt) {
			t.Fatal("list not sorted by trigger time")
		}
	}
	if got[0].Message != "task 1" {
		t.Fatalf("first listed = %q, want soonest", got[0].Message)
	}
}

func TestServiceCancel(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	ctx := context.Background()
	e, err := svc.Create(ctx, CreateInput{Owner: 7, Destination: 7, Text: "in 1 hour pay rent"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Cancel(ctx, 9, 7, e.ShortID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign cancel err = %v, want ErrNotFound", err)
	}
	if err := svc.Cancel(ctx, 7, 9, e.ShortID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancel from another chat err = %v, want ErrNotFound", err)
	}
	if err := svc.Cancel(ctx, 7, 7, e.ShortID()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := svc.List(7, 7); len(got) != 0 {
		t.Fatalf("list after cancel = %+v", got)
	}
}

func TestServiceListScopedToChat(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, baseNow)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Owner: 7, Destination: 100, Text: "in 1 hours here"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Owner: 7, Destination: 200, Text: "in 2 hours there"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := svc.List(7, 100)
	if len(got) != 1 || got[0].Message != "here" {
		t.Fatalf("list in chat 100 = %+v, want only the chat-100 entry", got)
	}
}
