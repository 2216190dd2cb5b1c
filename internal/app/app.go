// Package app wires configuration, storage, the reminder core and the chat
// transport into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"

	"rembot/internal/config"
	"rembot/internal/notify"
	"rembot/internal/reminder"
	"rembot/internal/router"
	"rembot/internal/storage"
	"rembot/internal/transport"
	"rembot/internal/transport/telegram"
	"rembot/pkg/logx"
)

const updateBuffer = 64

type App struct {
	manager *config.Manager
	logSvc  *logx.Service
	log     logx.Logger

	backend   storage.Store
	store     *reminder.Store
	service   *reminder.Service
	scheduler *reminder.Scheduler
	adapter   transport.Adapter
	router    *router.Router
	cron      *cron.Cron
}

// New builds the full dependency graph from the current config. Nothing
// starts running until Run.
func New(manager *config.Manager, logSvc *logx.Service, log logx.Logger) (*App, error) {
	cfg := manager.Get()
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	busyTimeout, _ := config.DurationFieldOr("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	backend, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	clk := clock.New()
	rc := cfg.Reminders

	store := reminder.NewStore(backend, log)
	service := reminder.NewService(store, clk, rc.Location(), rc.MaxListed, log)

	pollTimeout, _ := config.DurationFieldOr("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
		RatePerSec:  float64(cfg.Telegram.RatePerSec),
	}, log)
	if err != nil {
		if backend != nil {
			_ = backend.Close()
		}
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	notifier := notify.New(adapter, log)
	scheduler := reminder.NewScheduler(store, notifier, clk,
		rc.DeliveryTimeoutOrDefault(), rc.RetentionOrDefault(), log)

	return &App{
		manager:   manager,
		logSvc:    logSvc,
		log:       log.With(logx.String("component", "app")),
		backend:   backend,
		store:     store,
		service:   service,
		scheduler: scheduler,
		adapter:   adapter,
		router:    router.New(service, adapter, rc.DeliveryTimeoutOrDefault(), log),
	}, nil
}

// Run starts polling, the tick jobs and the config watcher, then blocks
// until ctx is cancelled. Shutdown is graceful: jobs stop, the adapter
// drains, state flushes once more.
func (a *App) Run(ctx context.Context) error {
	cfg := a.manager.Get()
	rc := cfg.Reminders

	if err := a.store.Load(ctx, time.Now().In(rc.Location()), rc.RetentionOrDefault()); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	updates := make(chan transport.Update, updateBuffer)
	if err := a.adapter.Start(ctx, updates); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}

	go a.router.Run(ctx, updates)
	go a.watchConfig(ctx)
	go func() {
		if err := a.manager.Watch(ctx); err != nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	if mu, ok := a.adapter.(transport.CommandMenuUpdater); ok {
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mu.UpdateMenuCommands(mctx, a.router.MenuCommands()); err != nil {
			a.log.Warn("command menu update failed", logx.Err(err))
		}
		cancel()
	}

	a.cron = cron.New()
	tick := rc.TickOrDefault()
	if _, err := a.cron.AddFunc(fmt.Sprintf("@every %s", tick), func() {
		a.scheduler.Tick(ctx)
	}); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	if _, err := a.cron.AddFunc("@daily", func() {
		a.scheduler.Maintain(ctx)
	}); err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	a.cron.Start()
	a.log.Info("running", logx.Duration("tick", tick), logx.Int("reminders", a.store.Len()))

	<-ctx.Done()
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.log.Info("shutting down")

	if a.cron != nil {
		stopped := a.cron.Stop()
		select {
		case <-stopped.Done():
		case <-time.After(5 * time.Second):
			a.log.Warn("cron jobs still running at shutdown")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.adapter.Stop(sctx); err != nil {
		a.log.Warn("adapter stop", logx.Err(err))
	}

	a.store.Flush(sctx)
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn("storage close", logx.Err(err))
		}
	}
	a.log.Info("bye")
	return nil
}

// watchConfig applies hot-reloadable settings. Only logging changes take
// effect live; transport and storage changes need a restart.
func (a *App) watchConfig(ctx context.Context) {
	sub := a.manager.Subscribe(4)
	defer a.manager.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("config reloaded", logx.String("log_level", cfg.Logging.Level))
		}
	}
}
