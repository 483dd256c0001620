// Package testutil provides shared test helpers for setting up knowledge
// bases and answering pipelines.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/gate"
	"github.com/starford/finsage/internal/knowledge"
	"github.com/starford/finsage/internal/llm"
	"github.com/starford/finsage/internal/models"
	"github.com/starford/finsage/internal/retrieval"
	"github.com/starford/finsage/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestStore creates a knowledge store backed by a temporary JSON snapshot.
func TestStore(t *testing.T) *knowledge.Store {
	t.Helper()
	snap, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "knowledge_base.json"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := knowledge.Open(context.Background(), snap, knowledge.Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Logger:       Logger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// StubGenerator answers every question with a fixed reply, or fails with Err.
type StubGenerator struct {
	Reply string
	Err   error
}

// Generate implements assistant.Generator.
func (g StubGenerator) Generate(_ context.Context, _ string, passages []models.SearchResult) (llm.Generation, error) {
	if g.Err != nil {
		return llm.Generation{}, g.Err
	}
	conf := llm.ConfidenceWithoutContext
	if len(passages) > 0 {
		conf = llm.ConfidenceWithContext
	}
	return llm.Generation{Answer: g.Reply, Confidence: conf, Sources: passages}, nil
}

// TestAssistant wires the default gate and a lexical searcher over store to gen.
func TestAssistant(store *knowledge.Store, gen assistant.Generator) *assistant.Assistant {
	return assistant.New(gate.Default(), retrieval.NewLexical(store), gen, assistant.Options{
		TopK:       5,
		Floor:      0.35,
		MaxSources: 3,
	}, Logger())
}
