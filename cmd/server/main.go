// Package main implements the entry point for the researcher API server,
// which accepts research queries over HTTP and processes them through the
// asynchronous fetch-and-analysis pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/0xM4sk/researcher/internal/config"
	"github.com/0xM4sk/researcher/internal/platform/logger"
	"github.com/0xM4sk/researcher/migrations"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// run loads configuration, wires the application together and serves until
// shutdown.
func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	appLogger.Info("Database schema up to date")

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
