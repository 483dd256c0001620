package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestKnowledgeConfig_BackendRules(t *testing.T) {
	cfg := NewDefaultConfig().Knowledge
	cfg.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend should fail validation")
	}

	cfg = NewDefaultConfig().Knowledge
	cfg.Backend = BackendSQLite
	cfg.SQLitePath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("sqlite backend without sqlite_path should fail")
	}

	cfg = NewDefaultConfig().Knowledge
	cfg.Backend = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty backend should default to json: %v", err)
	}
	if cfg.Backend != BackendJSON {
		t.Errorf("backend = %q, want %q", cfg.Backend, BackendJSON)
	}
}

func TestKnowledgeConfig_MaxFileSize(t *testing.T) {
	cfg := KnowledgeConfig{MaxFileSizeMB: 10}
	if got := cfg.MaxFileSize(); got != 10<<20 {
		t.Errorf("MaxFileSize = %d", got)
	}
}

func TestRetrievalConfig_Floor(t *testing.T) {
	cfg := NewDefaultConfig().Retrieval
	if got := cfg.Floor(); got != 0.35 {
		t.Errorf("floor = %v, want 0.35", got)
	}

	override := 0.1
	cfg.SimilarityFloor = &override
	if got := cfg.Floor(); got != 0.1 {
		t.Errorf("floor = %v, want explicit 0.1", got)
	}

	bad := 1.5
	cfg.SimilarityFloor = &bad
	if err := cfg.Validate(); err == nil {
		t.Error("floor above 1 should fail validation")
	}
}

func TestLLMConfig_OpenAIRequiresBaseURL(t *testing.T) {
	cfg := NewDefaultConfig().LLM
	cfg.Provider = ProviderOpenAI
	cfg.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("openai provider without base_url should fail")
	}
	cfg.BaseURL = "http://localhost:8080"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLLMConfig_HasAPIKey(t *testing.T) {
	cfg := LLMConfig{}
	if cfg.HasAPIKey() {
		t.Error("empty key should not count")
	}
	cfg.APIKey = "your_gemini_api_key_here"
	if cfg.HasAPIKey() {
		t.Error("placeholder key should not count")
	}
	cfg.APIKey = "real"
	if !cfg.HasAPIKey() {
		t.Error("real key should count")
	}
}

func TestFullConfig_ChunkingValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Chunking.Size = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch chunking error")
	}
}
