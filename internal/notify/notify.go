// Package notify turns fired reminder entries into chat messages.
package notify

import (
	"context"
	"fmt"
	"html"

	"rembot/internal/reminder"
	"rembot/internal/transport"
	"rembot/pkg/logx"
)

// Notifier renders entries and hands them to the chat adapter. Personal
// reminders mention their owner so the platform pings them; broadcasts post
// plain text (plus an optional image) without pinging anyone.
type Notifier struct {
	adapter transport.Adapter
	log     logx.Logger
}

func New(adapter transport.Adapter, log logx.Logger) *Notifier {
	return &Notifier{
		adapter: adapter,
		log:     log.With(logx.String("component", "notify")),
	}
}

func (n *Notifier) Notify(ctx context.Context, e *reminder.Entry) error {
	to := transport.ChatTarget{ChatID: e.Destination}

	if e.Mode == reminder.ModeBroadcast {
		return n.broadcast(ctx, to, e)
	}

	text := fmt.Sprintf("⏰ <a href=\"tg://user?id=%d\">Reminder</a>: %s",
		e.Owner, html.EscapeString(e.Message))
	_, err := n.adapter.SendText(ctx, to, text, &transport.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
	})
	return err
}

func (n *Notifier) broadcast(ctx context.Context, to transport.ChatTarget, e *reminder.Entry) error {
	if e.ImageRef != "" {
		_, err := n.adapter.SendPhoto(ctx, to, e.ImageRef, e.Message, nil)
		if err == nil {
			return nil
		}
		// A stale file id should not swallow the reminder text.
		n.log.Warn("broadcast image failed, falling back to text",
			logx.String("id", e.ShortID()), logx.Err(err))
	}
	_, err := n.adapter.SendText(ctx, to, "📢 "+e.Message, &transport.SendOptions{DisablePreview: true})
	return err
}
