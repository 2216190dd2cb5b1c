package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rembot/internal/reminder"
)

func (r *Router) registerCommands() {
	r.register(&Command{
		Name:        "remind",
		Aliases:     []string{"r"},
		Description: "set a one-shot reminder",
		Usage:       "/remind <when> <message> — e.g. /remind in 2 hours call mom",
		Handle:      r.cmdRemind,
	})
	r.register(&Command{
		Name:        "every",
		Aliases:     []string{"e"},
		Description: "set a recurring reminder",
		Usage:       "/every <rule> [at <time>] [until <date>] [for N times] <message>",
		Handle:      r.cmdEvery,
	})
	r.register(&Command{
		Name:        "broadcast",
		Description: "post a reminder to this chat without pinging anyone",
		Usage:       "/broadcast [img:<ref>] <when> <message>",
		Handle:      r.cmdBroadcast,
	})
	r.register(&Command{
		Name:        "reminders",
		Aliases:     []string{"list"},
		Description: "list your reminders",
		Usage:       "/reminders",
		Handle:      r.cmdList,
	})
	r.register(&Command{
		Name:        "cancel",
		Description: "cancel a reminder by id",
		Usage:       "/cancel <id>",
		Handle:      r.cmdCancel,
	})
	r.register(&Command{
		Name:        "help",
		Aliases:     []string{"start"},
		Description: "show usage",
		Usage:       "/help",
		Handle:      r.cmdHelp,
	})
}

func (r *Router) cmdRemind(ctx context.Context, req *Request) error {
	if strings.TrimSpace(req.Args) == "" {
		return req.Reply(ctx, r.usage("remind"))
	}
	e, err := r.svc.Create(ctx, reminder.CreateInput{
		Owner:       req.Message.FromID,
		Destination: req.Message.ChatID,
		Mode:        reminder.ModePersonal,
		Text:        req.Args,
	})
	if err != nil {
		return r.replyParseError(ctx, req, err)
	}
	return req.Reply(ctx, confirmLine(e))
}

func (r *Router) cmdEvery(ctx context.Context, req *Request) error {
	if strings.TrimSpace(req.Args) == "" {
		return req.Reply(ctx, r.usage("every"))
	}
	return r.createRecurring(ctx, req, reminder.ModePersonal, "", req.Args)
}

func (r *Router) cmdBroadcast(ctx context.Context, req *Request) error {
	if strings.TrimSpace(req.Args) == "" {
		return req.Reply(ctx, r.usage("broadcast"))
	}
	imageRef, rest, recurring := splitBroadcast(req.Args)
	if recurring {
		return r.createRecurring(ctx, req, reminder.ModeBroadcast, imageRef, rest)
	}
	e, err := r.svc.Create(ctx, reminder.CreateInput{
		Owner:       req.Message.FromID,
		Destination: req.Message.ChatID,
		Mode:        reminder.ModeBroadcast,
		ImageRef:    imageRef,
		Text:        rest,
	})
	if err != nil {
		return r.replyParseError(ctx, req, err)
	}
	return req.Reply(ctx, confirmLine(e))
}

func (r *Router) createRecurring(ctx context.Context, req *Request, mode reminder.Mode, imageRef, input string) error {
	ra, err := splitRecurring(input, r.svc.Now())
	if err != nil {
		return r.replyParseError(ctx, req, err)
	}
	e, err := r.svc.CreateRecurring(ctx, reminder.RecurringInput{
		Owner:       req.Message.FromID,
		Destination: req.Message.ChatID,
		Mode:        mode,
		ImageRef:    imageRef,
		Descriptor:  ra.descriptor,
		Message:     ra.message,
		At:          ra.at,
		Until:       ra.until,
		Times:       ra.times,
	})
	if err != nil {
		return r.replyParseError(ctx, req, err)
	}
	return req.Reply(ctx, confirmLine(e))
}

func (r *Router) cmdList(ctx context.Context, req *Request) error {
	entries := r.svc.List(req.Message.FromID, req.Message.ChatID)
	return req.Reply(ctx, reminder.FormatList(entries, r.svc.Now()))
}

func (r *Router) cmdCancel(ctx context.Context, req *Request) error {
	id := strings.TrimSpace(req.Args)
	if id == "" {
		return req.Reply(ctx, r.usage("cancel"))
	}
	err := r.svc.Cancel(ctx, req.Message.FromID, req.Message.ChatID, id)
	if errors.Is(err, reminder.ErrNotFound) {
		return req.Reply(ctx, fmt.Sprintf("No reminder %q. See /reminders for ids.", id))
	}
	if err != nil {
		return err
	}
	return req.Reply(ctx, fmt.Sprintf("Cancelled %s.", id))
}

func (r *Router) cmdHelp(ctx context.Context, req *Request) error {
	var b strings.Builder
	b.WriteString("I schedule reminders.\n\n")
	for _, c := range r.order {
		fmt.Fprintf(&b, "%s\n", c.Usage)
	}
	b.WriteString("\nTimes: \"in 2 hours\", \"tomorrow at 3pm\", \"dec 25\".\n")
	b.WriteString("Rules: \"day\", \"mon, wed, fri\", \"2 weeks on monday\", \"month on the last day\".")
	return req.Reply(ctx, b.String())
}

func (r *Router) usage(name string) string {
	if c, ok := r.commands[name]; ok {
		return "Usage: " + c.Usage
	}
	return "Usage: /help"
}

// replyParseError turns user input errors into chat replies; anything else
// propagates to the middleware chain.
func (r *Router) replyParseError(ctx context.Context, req *Request, err error) error {
	if errors.Is(err, reminder.ErrParse) || errors.Is(err, reminder.ErrRecurrence) {
		return req.Reply(ctx, "Could not understand that: "+err.Error())
	}
	return err
}

func confirmLine(e *reminder.Entry) string {
	when := e.TriggerAt.Format("Mon, 02 Jan 2006 15:04")
	if e.Recurring() {
		return fmt.Sprintf("Set [%s]: %s, %s, next on %s.", e.ShortID(), e.Message, e.Recurrence.Describe(), when)
	}
	return fmt.Sprintf("Set [%s]: %s on %s.", e.ShortID(), e.Message, when)
}
