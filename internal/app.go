package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/gate"
	"github.com/starford/finsage/internal/ingest"
	"github.com/starford/finsage/internal/knowledge"
	"github.com/starford/finsage/internal/llm"
	"github.com/starford/finsage/internal/retrieval"
	"github.com/starford/finsage/internal/storage"
)

// components is the wired core shared by every entry point.
type components struct {
	snap      storage.Snapshotter
	store     *knowledge.Store
	searcher  *retrieval.Lexical
	assistant *assistant.Assistant
	scanner   *ingest.Scanner
}

func (c *components) Close() error {
	return c.snap.Close()
}

// build opens the knowledge base and assembles the answering pipeline.
// onChange may be nil.
func (a *application) build(ctx context.Context, onChange func(knowledge.Change)) (*components, error) {
	cfg := a.config
	logger := a.logger

	snap, err := openSnapshot(cfg.Knowledge)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	store, err := knowledge.Open(ctx, snap, knowledge.Options{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		Logger:       logger,
		OnChange:     onChange,
	})
	if err != nil {
		_ = snap.Close()
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}

	gen := a.generator
	if gen == nil {
		gen = newGenerator(ctx, cfg.LLM, logger)
	}

	searcher := retrieval.NewLexical(store)
	asst := assistant.New(gate.Default(), searcher, gen, assistant.Options{
		TopK:            cfg.Retrieval.TopK,
		Floor:           cfg.Retrieval.Floor(),
		MaxSources:      cfg.LLM.MaxSources,
		GenerateTimeout: cfg.LLM.Timeout,
	}, logger)

	return &components{
		snap:      snap,
		store:     store,
		searcher:  searcher,
		assistant: asst,
		scanner:   ingest.NewScanner(store, cfg.Knowledge.DocumentsDir, logger),
	}, nil
}

func openSnapshot(cfg KnowledgeConfig) (storage.Snapshotter, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return storage.OpenSQLite(cfg.SQLitePath)
	default:
		return storage.NewJSONFile(cfg.SnapshotPath)
	}
}

// newGenerator returns nil when no usable credentials are configured; the
// assistant then answers every in-domain question with an apology.
func newGenerator(ctx context.Context, cfg LLMConfig, logger *slog.Logger) assistant.Generator {
	if cfg.Provider == ProviderGemini && !cfg.HasAPIKey() {
		logger.Warn("GEMINI_API_KEY is not set; answers cannot be generated")
		return nil
	}
	g, err := llm.New(ctx, llm.Config{
		Provider:          cfg.Provider,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			logger.Warn("llm not configured", slog.String("error", err.Error()))
		} else {
			logger.Error("init llm", slog.String("error", err.Error()))
		}
		return nil
	}
	logger.Info("llm ready",
		slog.String("provider", cfg.Provider),
		slog.String("model", cfg.Model))
	return g
}

// countOutcomes tallies scan results and warns about files that failed.
func countOutcomes(logger *slog.Logger, results []ingest.FileResult) (added, skipped, failed int) {
	for _, r := range results {
		switch r.Outcome {
		case ingest.OutcomeAdded, ingest.OutcomeUpdated:
			added++
		case ingest.OutcomeSkipped:
			skipped++
		case ingest.OutcomeFailed:
			failed++
			logger.Warn("document not loaded",
				slog.String("file", r.Name),
				slog.String("reason", r.Reason))
		}
	}
	return added, skipped, failed
}
