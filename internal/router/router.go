package router

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"rembot/internal/reminder"
	"rembot/internal/transport"
	"rembot/pkg/logx"
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handle      HandlerFunc
}

// Request is one inbound command invocation.
type Request struct {
	Message *transport.Message
	Chat    transport.ChatTarget
	Command string
	Args    string

	Adapter transport.Adapter
	Logger  logx.Logger
}

// Reply sends text back to the originating chat.
func (r *Request) Reply(ctx context.Context, text string) error {
	_, err := r.Adapter.SendText(ctx, r.Chat, text, &transport.SendOptions{DisablePreview: true})
	return err
}

// Router dispatches slash commands to the reminder service.
type Router struct {
	svc     *reminder.Service
	adapter transport.Adapter
	log     logx.Logger
	timeout time.Duration

	botName  string
	commands map[string]*Command
	order    []*Command
	chain    HandlerFunc
}

func New(svc *reminder.Service, adapter transport.Adapter, timeout time.Duration, log logx.Logger) *Router {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := &Router{
		svc:      svc,
		adapter:  adapter,
		log:      log.With(logx.String("component", "router")),
		timeout:  timeout,
		commands: make(map[string]*Command),
	}
	r.registerCommands()
	r.chain = Chain(r.dispatch,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(r.timeout),
	)
	return r
}

// SetBotName lets "/cmd@botname" forms match in group chats.
func (r *Router) SetBotName(name string) {
	r.botName = strings.TrimPrefix(strings.ToLower(name), "@")
}

func (r *Router) register(c *Command) {
	r.commands[c.Name] = c
	for _, a := range c.Aliases {
		r.commands[a] = c
	}
	r.order = append(r.order, c)
}

// MenuCommands lists registered commands for the platform command menu.
func (r *Router) MenuCommands() []transport.BotCommand {
	out := make([]transport.BotCommand, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, transport.BotCommand{Command: c.Name, Description: c.Description})
	}
	return out
}

// Handle consumes one update. Non-command text is ignored.
func (r *Router) Handle(ctx context.Context, up transport.Update) {
	m := up.Message
	if m == nil || !strings.HasPrefix(m.Text, "/") {
		return
	}

	name, args := splitCommand(m.Text)
	if i := strings.IndexByte(name, '@'); i >= 0 {
		target := strings.ToLower(name[i+1:])
		if r.botName != "" && target != r.botName {
			return
		}
		name = name[:i]
	}

	cmd, ok := r.commands[name]
	if !ok {
		// Stay quiet in groups; other bots share the command namespace there.
		if !m.IsGroup {
			req := r.newRequest(m, name, args)
			_ = req.Reply(ctx, fmt.Sprintf("Unknown command /%s. Try /help.", name))
		}
		return
	}

	req := r.newRequest(m, cmd.Name, args)
	if err := r.chain(ctx, req); err != nil {
		r.log.Warn("command failed",
			logx.String("command", cmd.Name),
			logx.Int64("from", m.FromID),
			logx.Err(err))
	}
}

func (r *Router) newRequest(m *transport.Message, command, args string) *Request {
	return &Request{
		Message: m,
		Chat:    transport.ChatTarget{ChatID: m.ChatID},
		Command: command,
		Args:    args,
		Adapter: r.adapter,
		Logger:  r.log,
	}
}

func (r *Router) dispatch(ctx context.Context, req *Request) error {
	return r.commands[req.Command].Handle(ctx, req)
}

// Run consumes updates until the channel closes or the context ends.
func (r *Router) Run(ctx context.Context, updates <-chan transport.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			r.Handle(ctx, up)
		}
	}
}

func splitCommand(text string) (name, args string) {
	text = strings.TrimPrefix(text, "/")
	if i := strings.IndexByte(text, ' '); i >= 0 {
		return strings.ToLower(text[:i]), strings.TrimSpace(text[i+1:])
	}
	return strings.ToLower(text), ""
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						logx.Any("panic", rec),
						logx.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			return next(ctx, req)
		}
	}
}

func MWRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)
			ev := log.Debug
			if err != nil {
				ev = log.Warn
			}
			ev("command handled",
				logx.String("command", req.Command),
				logx.Int64("from", req.Message.FromID),
				logx.Duration("took", time.Since(start)),
				logx.Err(err),
			)
			return err
		}
	}
}
