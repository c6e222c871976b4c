package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/worldgate/internal/config"
	"github.com/udisondev/worldgate/internal/coordinator"
	"github.com/udisondev/worldgate/internal/db"
	"github.com/udisondev/worldgate/internal/save"
	"github.com/udisondev/worldgate/internal/wlistener"
)

const ConfigPath = "config/coordinator.yaml"

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
	// Configure slog
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	})))

	slog.Info("worldgate login coordinator starting")

	// Load config
	cfgPath := ConfigPath
	if p := os.Getenv("WORLDGATE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadCoordinator(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded",
		"listen", cfg.ListenHost, "port", cfg.ListenPort,
		"saves_root", cfg.SavesRoot, "auto_create", cfg.AutoCreateAccounts)

	// Connect to database
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// Wire up the coordinator
	saves := save.NewFileRepository(cfg.SavesRoot)
	handler := coordinator.NewHandler(database, saves, cfg)
	listener := wlistener.NewServer(cfg, handler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting world listener")
		if err := listener.Run(gctx); err != nil {
			return fmt.Errorf("world listener: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
