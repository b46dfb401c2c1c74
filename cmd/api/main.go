package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-assistant/internal/app"
	"course-assistant/internal/config"
	"course-assistant/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about ingested course materials.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Course Assistant API
//   description: |
//     Retrieval-augmented question answering over course documents. The model decides
//     when to search course content or read a course outline, at most once per query.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

const (
	requestTimeout  = 2 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	// Fail fast on a misconfigured embedding service
	if err := application.ValidateEmbedder(ctx); err != nil {
		log.Fatalf("Embedding check failed: %v", err)
	}

	// Ingestion finishes before the server accepts queries.
	if cfg.IngestOnStartup {
		slog.Info("Loading course documents", "dir", cfg.DocsPath)
		report, err := application.Ingest(ctx, cfg.DocsPath, false)
		switch {
		case err != nil:
			slog.Warn("Course ingestion did not complete", "dir", cfg.DocsPath, "error", err)
		default:
			slog.Info("Course ingestion finished",
				"added", report.CoursesAdded,
				"skipped", report.CoursesSkipped,
				"failed", report.Failed,
				"chunks", report.ChunksAdded,
				"index_version", report.IndexVersion,
			)
		}
	}

	router := http.NewRouter(&http.Deps{
		Engine:         application.Engine,
		Courses:        application.Courses,
		RequestTimeout: requestTimeout,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
