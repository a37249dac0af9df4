package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/handoverhq/handover/internal/api"
	"github.com/handoverhq/handover/internal/auth"
	"github.com/handoverhq/handover/internal/config"
	"github.com/handoverhq/handover/internal/coverage"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/jobs"
	"github.com/handoverhq/handover/internal/knowledge"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/persona"
	"github.com/handoverhq/handover/internal/qa"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/snapshot"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	slog.Info("handover starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Postgres when configured, the filesystem store otherwise.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		slog.Info("database connected")
	} else {
		fs, err := store.NewFile(cfg.DataDir)
		if err != nil {
			slog.Error("failed to open data directory", "error", err, "dir", cfg.DataDir)
			os.Exit(1)
		}
		st = fs
		slog.Info("filesystem store ready", "dir", cfg.DataDir)
	}

	if cfg.LLMAPIKey == "" {
		slog.Error("LLM_API_KEY is required")
		os.Exit(1)
	}
	client := llm.NewAnthropic(cfg.LLMAPIKey, cfg.LLMModel)
	slog.Info("llm client ready", "model", cfg.LLMModel)

	catalog := roles.MustLoad()
	analyzer := coverage.NewKeyword(catalog)

	topics := topic.NewService(st)
	points := knowledge.NewService(st, client, catalog, topics, logger)
	extractor := snapshot.NewExtractor(st, client, points, logger)

	handler := func(ctx context.Context, job jobs.Job) {
		if job.Kind != jobs.KindSnapshot {
			logger.Warn("unknown job kind", "kind", job.Kind)
			return
		}
		if _, err := extractor.Create(ctx, job.InterviewID); err != nil {
			logger.Error("snapshot extraction failed", "interviewId", job.InterviewID, "error", err)
		}
	}

	// Job queue: NATS when configured, the in-process worker otherwise.
	var queue jobs.Queue
	if cfg.NatsURL != "" {
		nq, err := jobs.NewNATS(cfg.NatsURL, cfg.NatsToken, handler, logger)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nq.Close()
		queue = nq
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		wq := jobs.NewWorker(handler, 1, 64, logger)
		defer wq.Close()
		queue = wq
		slog.Info("in-process job queue ready")
	}

	interviews := interview.NewService(st, client, catalog, analyzer, queue, topics, cfg.SnapshotInterval, logger)
	personas := persona.NewService(st, client, extractor, logger)
	evaluations := qa.NewService(st, client, catalog, personas, logger)
	experts := auth.NewService(st, cfg.JWTSecret, cfg.TokenTTL)

	srv := api.NewServer(api.Services{
		Auth:       experts,
		Interviews: interviews,
		Snapshots:  extractor,
		Knowledge:  points,
		Topics:     topics,
		Personas:   personas,
		QA:         evaluations,
		Catalog:    catalog,
		Store:      st,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("handover ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	slog.Info("handover stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
