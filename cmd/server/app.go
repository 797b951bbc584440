package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/0xM4sk/researcher/internal/analysis"
	"github.com/0xM4sk/researcher/internal/config"
	"github.com/0xM4sk/researcher/internal/platform/gemini"
	"github.com/0xM4sk/researcher/internal/platform/postgres"
	"github.com/0xM4sk/researcher/internal/provider"
	"github.com/0xM4sk/researcher/internal/research"
	"github.com/0xM4sk/researcher/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore task.StateStore
	queue     *task.Queue
	runner    *task.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized and the task runner started. It accepts core dependencies
// that must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewTaskStore(db)
	cache := postgres.NewCacheStore(db)

	providers := setupProviders(cfg.Providers, logger)
	if len(providers) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}

	analyzer, err := setupAnalyzer(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	// One semaphore bounds provider calls across the whole process.
	// Analysis is left unbounded; the fetch stage's truncation already
	// caps its fan-out.
	sem := semaphore.NewWeighted(int64(cfg.Pipeline.MaxConcurrentRequests))

	fetchStage := research.NewFetchStage(providers, cache, sem, research.FetchConfig{
		TopN:     cfg.Pipeline.FetchTopN,
		CacheTTL: time.Duration(cfg.Pipeline.CacheTTLSeconds) * time.Second,
	}, logger)
	analysisStage := research.NewAnalysisStage(analyzer, logger)
	orchestrator := research.NewOrchestrator(fetchStage, analysisStage, logger)

	app.queue = task.NewQueue(cfg.Pipeline.QueueSize, app.taskStore, logger)

	// Re-enqueue work interrupted by the previous shutdown before the
	// consumer starts, so recovered tasks run ahead of new submissions.
	recovered, err := app.queue.Recover(ctx)
	if err != nil {
		logger.Warn("task recovery failed, continuing with new work only", "error", err)
	} else if recovered > 0 {
		logger.Info("re-enqueued unfinished tasks from previous run", "count", recovered)
	}

	app.runner = task.NewRunner(app.queue, app.taskStore,
		map[string]task.Handler{
			task.TypeResearch: orchestrator.Handler(),
		},
		task.RunnerConfig{
			PopTimeout:  time.Duration(cfg.Pipeline.PopTimeoutSeconds) * time.Second,
			TaskTimeout: time.Duration(cfg.Pipeline.TaskTimeoutSeconds) * time.Second,
		},
		logger)
	app.runner.Start(ctx)

	logger.Info("Application initialized successfully",
		"providers", len(providers),
		"max_concurrent_requests", cfg.Pipeline.MaxConcurrentRequests)
	return app, nil
}

// setupProviders builds the provider set from the configured API keys.
// Providers without a key are not registered; DuckDuckGo needs no key and
// is always available.
func setupProviders(cfg config.ProvidersConfig, logger *slog.Logger) []provider.Provider {
	client := &http.Client{
		Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}

	var providers []provider.Provider

	if cfg.GoogleAPIKey != "" {
		google, err := provider.NewGoogleProvider(cfg.GoogleAPIKey, client)
		if err != nil {
			logger.Warn("skipping Google provider", "error", err)
		} else {
			providers = append(providers, google)
		}
	}

	if cfg.SerperAPIKey != "" {
		serper, err := provider.NewSerperProvider(cfg.SerperAPIKey, client)
		if err != nil {
			logger.Warn("skipping Serper provider", "error", err)
		} else {
			providers = append(providers, serper)
		}
	}

	providers = append(providers, provider.NewDuckDuckGoProvider(client))

	return providers
}

// setupAnalyzer picks the content analyzer: Gemini when an API key is
// configured, the local heuristic otherwise.
func setupAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (analysis.Analyzer, error) {
	if cfg.LLM.GeminiAPIKey == "" {
		logger.Info("no Gemini API key configured, using heuristic analyzer")
		return analysis.NewHeuristicAnalyzer(), nil
	}

	analyzer, err := gemini.NewAnalyzer(ctx, logger.With("component", "gemini_analyzer"), cfg.LLM)
	if err != nil {
		return nil, err
	}
	logger.Info("Gemini analyzer initialized", "model", cfg.LLM.ModelName)
	return analyzer, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. The queue is
// closed before the runner stops so no new work is admitted while the
// in-flight task finishes.
func (app *application) cleanup() {
	if app.queue != nil {
		app.queue.Close()
	}
	if app.runner != nil {
		app.runner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
