package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/raidtimers/internal/config"
	"github.com/udisondev/raidtimers/internal/data"
	"github.com/udisondev/raidtimers/internal/db"
	"github.com/udisondev/raidtimers/internal/game/alert"
	"github.com/udisondev/raidtimers/internal/game/encounter"
	"github.com/udisondev/raidtimers/internal/overlay"
	"github.com/udisondev/raidtimers/internal/watch"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := config.Path()
	cfg, err := config.LoadTimers(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	encounter.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("raidtimers starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"definitions", cfg.DefinitionsDir)

	catalog, res, err := data.LoadEncounters(cfg.DefinitionsDir)
	if err != nil {
		return fmt.Errorf("loading encounter definitions: %w", err)
	}
	for _, path := range res.FailedPaths() {
		slog.Warn("encounter definition not loaded", "path", path, "error", res.Errors[path])
	}

	hub := overlay.NewHub(cfg.Overlay.SendQueueSize)
	sched := alert.NewScheduler(alert.MultiSink{hub, alert.SinkFunc(logEvent)})

	mgr := encounter.NewManager(catalog, sched, encounter.ManagerConfig{
		TickInterval: cfg.TickInterval,
		QueueSize:    cfg.EventQueueSize,
		ResetAck:     cfg.ResetAckDuration,
		Disabled:     cfg.DisabledEncounters,
	})

	store, closeStore, err := openRunStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	journal := encounter.NewJournal(store, 0)
	mgr.OnTransition(journal.Observe)
	mgr.OnDestroy(journal.Abandon)

	g, gctx := errgroup.WithContext(ctx)

	// The journal outlives the manager so runs abandoned at shutdown are saved.
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()

	g.Go(func() error {
		defer stopJournal()
		slog.Info("starting encounter manager", "interval", cfg.TickInterval)
		if err := mgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("encounter manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return journal.Run(journalCtx)
	})

	overlaySrv := overlay.NewServer(cfg.Overlay, hub, mgr)
	g.Go(func() error {
		slog.Info("starting overlay", "address", cfg.Overlay.Addr())
		if err := overlaySrv.Run(gctx); err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
		return nil
	})

	if cfg.WatchDefinitions {
		w, err := watch.New(cfg.DefinitionsDir, watch.DefaultDebounce, func(c *data.Catalog, res data.LoadResult) {
			if res.Failed > 0 {
				slog.Warn("reloaded definitions with failures", "loaded", res.Loaded, "failed", res.Failed)
			}
			mgr.Post(encounter.ReloadInput{Catalog: c})
		})
		if err != nil {
			return fmt.Errorf("watching definitions: %w", err)
		}
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				return fmt.Errorf("definitions watcher: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// openRunStore connects the run history database when enabled. Without a
// database, runs are only logged.
func openRunStore(ctx context.Context, cfg config.DatabaseConfig) (encounter.RunStore, func(), error) {
	if !cfg.Enabled {
		slog.Info("run history database disabled")
		return logRunStore{}, func() {}, nil
	}

	database, err := db.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.DSN()); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	return &runStoreAdapter{repo: db.NewRunRepository(database.Pool())}, database.Close, nil
}

// logEvent traces presentation events when debug logging is on.
func logEvent(ev alert.Event) {
	if !encounter.IsDebugEnabled() {
		return
	}
	attrs := []any{"event", ev.Kind, "encounter", ev.Encounter}
	if ev.Banner != nil {
		attrs = append(attrs, "text", ev.Banner.Text, "display", ev.Banner.Display)
	}
	if ev.Batch != nil {
		attrs = append(attrs, "phase", ev.Batch.Phase, "alerts", len(ev.Batch.Alerts))
	}
	slog.Debug("presentation event", attrs...)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
