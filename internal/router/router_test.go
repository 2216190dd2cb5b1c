package router

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"

	"rembot/internal/reminder"
	"rembot/internal/transport"
	"rembot/pkg/logx"
)

type fakeAdapter struct {
	mu     sync.Mutex
	texts  []string
	photos []string
}

func (f *fakeAdapter) Start(context.Context, chan<- transport.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                           { return nil }

func (f *fakeAdapter) SendText(_ context.Context, _ transport.ChatTarget, text string, _ *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return transport.MessageRef{}, nil
}

func (f *fakeAdapter) SendPhoto(_ context.Context, _ transport.ChatTarget, ref, _ string, _ *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, ref)
	return transport.MessageRef{}, nil
}

func (f *fakeAdapter) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		t.Fatal("no reply sent")
	}
	return f.texts[len(f.texts)-1]
}

func newTestRouter(t *testing.T) (*Router, *fakeAdapter, *reminder.Service) {
	t.Helper()
	clk := clock.NewFake()
	clk.Set(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))
	store := reminder.NewStore(nil, logx.Nop())
	svc := reminder.NewService(store, clk, time.UTC, 10, logx.Nop())
	adapter := &fakeAdapter{}
	return New(svc, adapter, 5*time.Second, logx.Nop()), adapter, svc
}

func msgUpdate(text string) transport.Update {
	return transport.Update{Message: &transport.Message{
		ID:     1,
		ChatID: 100,
		FromID: 7,
		Text:   text,
	}}
}

func TestRouterRemind(t *testing.T) {
	t.Parallel()

	r, adapter, svc := newTestRouter(t)
	r.Handle(context.Background(), msgUpdate("/remind in 2 hours call mom"))

	reply := adapter.lastText(t)
	if !strings.Contains(reply, "call mom") {
		t.Fatalf("reply = %q", reply)
	}
	entries := svc.List(7, 100)
	if len(entries) != 1 || entries[0].Message != "call mom" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Destination != 100 {
		t.Fatalf("destination = %d, want chat id", entries[0].Destination)
	}
}

func TestRouterEvery(t *testing.T) {
	t.Parallel()

	r, adapter, svc := newTestRouter(t)
	r.Handle(context.Background(), msgUpdate("/every day at 9am for 3 times stretch"))

	reply := adapter.lastText(t)
	if !strings.Contains(reply, "every day") {
		t.Fatalf("reply = %q", reply)
	}
	entries := svc.List(7, 100)
	if len(entries) != 1 || !entries[0].Recurring() || entries[0].MaxTriggers != 3 {
		t.Fatalf("entries = %+v", entries)
	}
	// 9am today already passed at 10:00, so the seed lands tomorrow.
	want := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
	if !entries[0].TriggerAt.Equal(want) {
		t.Fatalf("first trigger = %v, want %v", entries[0].TriggerAt, want)
	}
}

func TestRouterBroadcast(t *testing.T) {
	t.Parallel()

	r, _, svc := newTestRouter(t)
	r.Handle(context.Background(), msgUpdate("/broadcast img:abc123 in 1 hour maintenance window"))

	entries := svc.List(7, 100)
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	e := entries[0]
	if e.Mode != reminder.ModeBroadcast || e.ImageRef != "abc123" || e.Message != "maintenance window" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestRouterParseErrorReplies(t *testing.T) {
	t.Parallel()

	r, adapter, svc := newTestRouter(t)
	r.Handle(context.Background(), msgUpdate("/remind yesterday maybe"))

	reply := adapter.lastText(t)
	if !strings.Contains(reply, "Could not understand") {
		t.Fatalf("reply = %q", reply)
	}
	if got := svc.List(7, 100); len(got) != 0 {
		t.Fatalf("entries = %+v", got)
	}
}

func TestRouterCancelAndList(t *testing.T) {
	t.Parallel()

	r, adapter, svc := newTestRouter(t)
	ctx := context.Background()
	r.Handle(ctx, msgUpdate("/remind in 1 hour pay rent"))
	entries := svc.List(7, 100)
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}

	r.Handle(ctx, msgUpdate("/reminders"))
	if reply := adapter.lastText(t); !strings.Contains(reply, "pay rent") {
		t.Fatalf("list reply = %q", reply)
	}

	r.Handle(ctx, msgUpdate("/cancel "+entries[0].ShortID()))
	if reply := adapter.lastText(t); !strings.Contains(reply, "Cancelled") {
		t.Fatalf("cancel reply = %q", reply)
	}
	if got := svc.List(7, 100); len(got) != 0 {
		t.Fatalf("entries after cancel = %+v", got)
	}

	r.Handle(ctx, msgUpdate("/cancel deadbeef"))
	if reply := adapter.lastText(t); !strings.Contains(reply, "No reminder") {
		t.Fatalf("missing-id reply = %q", reply)
	}
}

func TestRouterScopesToChat(t *testing.T) {
	t.Parallel()

	r, adapter, svc := newTestRouter(t)
	ctx := context.Background()
	r.Handle(ctx, msgUpdate("/remind in 1 hour water plants"))
	entries := svc.List(7, 100)
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}

	elsewhere := msgUpdate("/reminders")
	elsewhere.Message.ChatID = 200
	r.Handle(ctx, elsewhere)
	if reply := adapter.lastText(t); strings.Contains(reply, "water plants") {
		t.Fatalf("entry from another chat listed: %q", reply)
	}

	cancel := msgUpdate("/cancel " + entries[0].ShortID())
	cancel.Message.ChatID = 200
	r.Handle(ctx, cancel)
	if reply := adapter.lastText(t); !strings.Contains(reply, "No reminder") {
		t.Fatalf("cross-chat cancel reply = %q", reply)
	}
	if got := svc.List(7, 100); len(got) != 1 {
		t.Fatal("entry cancelled from another chat")
	}
}

func TestRouterIgnoresPlainTextAndForeignBot(t *testing.T) {
	t.Parallel()

	r, adapter, _ := newTestRouter(t)
	r.SetBotName("rembot")
	ctx := context.Background()

	r.Handle(ctx, msgUpdate("just chatting"))
	r.Handle(ctx, msgUpdate("/remind@otherbot in 1 hour x"))

	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	if len(adapter.texts) != 0 {
		t.Fatalf("unexpected replies: %v", adapter.texts)
	}
}

func TestRouterUnknownCommand(t *testing.T) {
	t.Parallel()

	r, adapter, _ := newTestRouter(t)
	r.Handle(context.Background(), msgUpdate("/frobnicate"))
	if reply := adapter.lastText(t); !strings.Contains(reply, "Unknown command") {
		t.Fatalf("reply = %q", reply)
	}

	group := msgUpdate("/frobnicate")
	group.Message.IsGroup = true
	before := len(adapter.texts)
	r.Handle(context.Background(), group)
	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	if len(adapter.texts) != before {
		t.Fatal("replied to unknown command in a group")
	}
}
