// Package main runs the quiz generation API server: the HTTP API, the
// generation and minion worker pools, and the status and result streams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/tracing"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default ./config.yaml when present)")
	migrate := flag.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		slog.Error("server exited with error", "error", redact.Error(err))
		os.Exit(1)
	}
}

func run(configPath, migrateCommand string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	log, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	if migrateCommand != "" {
		defer func() { _ = db.Close() }()
		return runMigrations(ctx, db, migrateCommand, log)
	}
	if cfg.Database.MigrateOnStart {
		if err := runMigrations(ctx, db, "up", log); err != nil {
			_ = db.Close()
			return err
		}
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, version, log)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", redact.Error(err))
		}
	}()

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
