// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/finsage/internal/api"
	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/ingest"
	"github.com/starford/finsage/internal/knowledge"
	"github.com/starford/finsage/internal/mcpserver"
	"github.com/starford/finsage/internal/sse"
)

// Run starts the HTTP service with the given options and blocks until a
// shutdown signal arrives or ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("backend", cfg.Knowledge.Backend),
		slog.String("documents_dir", cfg.Knowledge.DocumentsDir),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.Float64("similarity_floor", cfg.Retrieval.Floor()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The broker needs the store for stats and the store reports changes to
	// the broker, so the store is attached after both exist.
	var store *knowledge.Store
	broker := sse.NewBroker(2*time.Second, func() any {
		return store.Stats(context.Background())
	})
	defer broker.Close()

	c, err := app.build(ctx, func(ch knowledge.Change) {
		broker.PublishDocumentEvent(ch.Kind, ch.ID, ch.Title)
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	store = c.store

	if cfg.Knowledge.AutoLoad {
		results, scanErr := c.scanner.Scan(ctx)
		if scanErr != nil {
			logger.Warn("initial scan failed", slog.String("error", scanErr.Error()))
		} else {
			countOutcomes(logger, results)
		}
	}

	stats := store.Stats(ctx)
	logger.Info("Knowledge base ready",
		slog.Int("documents", stats.DocumentCount),
		slog.Int("chunks", stats.TotalChunkCount))

	apiRouter := api.NewRouter(api.Deps{
		Store:          store,
		Assistant:      c.assistant,
		Searcher:       c.searcher,
		Scanner:        c.scanner,
		TopK:           cfg.Retrieval.TopK,
		Floor:          cfg.Retrieval.Floor(),
		MaxUploadBytes: cfg.Knowledge.MaxFileSize(),
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"documents": store.Stats(context.Background()).DocumentCount,
		})
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Knowledge.Watch {
		g.Go(func() error {
			err := c.scanner.Watch(gCtx, func(res ingest.FileResult) {
				broker.Publish(sse.Event{Type: sse.EventIngestFile, Data: res})
			})
			if err != nil {
				logger.Warn("documents watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))}, opts...))
	if err != nil {
		return err
	}
	slog.SetDefault(app.logger)

	c, err := app.build(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if app.config.Knowledge.AutoLoad {
		if _, err := c.scanner.Scan(ctx); err != nil {
			app.logger.Warn("initial scan failed", slog.String("error", err.Error()))
		}
	}

	srv := mcpserver.New(mcpserver.Deps{
		Store:       c.store,
		Assistant:   c.assistant,
		Searcher:    c.searcher,
		TopK:        app.config.Retrieval.TopK,
		Floor:       app.config.Retrieval.Floor(),
		MaxFileSize: app.config.Knowledge.MaxFileSize(),
	})
	return srv.ServeStdio()
}

// ScanReport summarizes a one-shot ingestion of the documents folder.
type ScanReport struct {
	Results []ingest.FileResult `json:"results"`
	Added   int                 `json:"added"`
	Skipped int                 `json:"skipped"`
	Failed  int                 `json:"failed"`
}

// Ingest scans the documents folder once and writes a per-file report to out.
func Ingest(ctx context.Context, out io.Writer, opts ...Option) (ScanReport, error) {
	app, err := newApplication(opts)
	if err != nil {
		return ScanReport{}, err
	}
	c, err := app.build(ctx, nil)
	if err != nil {
		return ScanReport{}, err
	}
	defer func() { _ = c.Close() }()

	results, err := c.scanner.Scan(ctx)
	if err != nil {
		return ScanReport{}, err
	}
	rep := ScanReport{Results: results}
	rep.Added, rep.Skipped, rep.Failed = countOutcomes(app.logger, results)

	for _, r := range results {
		line := fmt.Sprintf("%-8s %s", r.Outcome, r.Name)
		if r.Reason != "" {
			line += ": " + r.Reason
		}
		if r.SkippedPages > 0 {
			line += fmt.Sprintf(" (%d pages skipped)", r.SkippedPages)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "added %d, skipped %d, failed %d\n", rep.Added, rep.Skipped, rep.Failed)
	return rep, nil
}

// Ask answers a single question against the stored knowledge base.
func Ask(ctx context.Context, question string, opts ...Option) (assistant.Answer, error) {
	app, err := newApplication(opts)
	if err != nil {
		return assistant.Answer{}, err
	}
	c, err := app.build(ctx, nil)
	if err != nil {
		return assistant.Answer{}, err
	}
	defer func() { _ = c.Close() }()
	return c.assistant.Ask(ctx, question), nil
}
