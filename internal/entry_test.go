package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/testutil"
)

func testConfig(t *testing.T, backend string) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Knowledge.Backend = backend
	cfg.Knowledge.SnapshotPath = filepath.Join(dir, "kb", "knowledge_base.json")
	cfg.Knowledge.SQLitePath = filepath.Join(dir, "kb", "finsage.db")
	cfg.Knowledge.DocumentsDir = filepath.Join(dir, "documents")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writeDoc(t *testing.T, cfg *Config, name, text string) {
	t.Helper()
	if err := os.MkdirAll(cfg.Knowledge.DocumentsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Knowledge.DocumentsDir, name), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestIngest_ReportAndIdempotence(t *testing.T) {
	for _, backend := range []string{BackendJSON, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			writeDoc(t, cfg, "emergency.txt", "An emergency fund should cover three to six months of expenses.")
			writeDoc(t, cfg, "broken.pdf", "not a pdf")
			opts := []Option{WithConfig(cfg), WithLogger(testutil.Logger())}

			var out bytes.Buffer
			rep, err := Ingest(context.Background(), &out, opts...)
			if err != nil {
				t.Fatal(err)
			}
			if rep.Added != 1 || rep.Failed != 1 || rep.Skipped != 0 {
				t.Errorf("report = %+v", rep)
			}
			if !strings.Contains(out.String(), "added 1, skipped 0, failed 1") {
				t.Errorf("output = %q", out.String())
			}

			rep, err = Ingest(context.Background(), &bytes.Buffer{}, opts...)
			if err != nil {
				t.Fatal(err)
			}
			if rep.Added != 0 || rep.Skipped != 1 || rep.Failed != 1 {
				t.Errorf("second report = %+v", rep)
			}
		})
	}
}

func TestAsk_UsesStoredDocuments(t *testing.T) {
	cfg := testConfig(t, BackendJSON)
	writeDoc(t, cfg, "emergency.txt", "An emergency fund should cover three to six months of expenses.")
	opts := []Option{
		WithConfig(cfg),
		WithLogger(testutil.Logger()),
		WithGenerator(testutil.StubGenerator{Reply: "Three to six months."}),
	}
	if _, err := Ingest(context.Background(), &bytes.Buffer{}, opts...); err != nil {
		t.Fatal(err)
	}

	ans, err := Ask(context.Background(), "Should an emergency fund cover expenses", opts...)
	if err != nil {
		t.Fatal(err)
	}
	if ans.State != assistant.StateDelivered || ans.Text != "Three to six months." {
		t.Fatalf("answer = %+v", ans)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Filename != "emergency.txt" {
		t.Errorf("sources = %+v", ans.Sources)
	}
}

func TestAsk_WithoutAPIKeyApologizes(t *testing.T) {
	cfg := testConfig(t, BackendJSON)
	cfg.LLM.APIKey = ""

	ans, err := Ask(context.Background(), "How do I build a budget?", WithConfig(cfg), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatal(err)
	}
	if ans.State != assistant.StateFailed || ans.Text != assistant.ApologyNotice {
		t.Errorf("answer = %+v", ans)
	}
}
