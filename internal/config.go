package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Knowledge base persistence backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Knowledge KnowledgeConfig   `yaml:"knowledge"`
	Chunking  ChunkingConfig    `yaml:"chunking"`
	Retrieval RetrievalConfig   `yaml:"retrieval"`
	LLM       LLMConfig         `yaml:"llm"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Knowledge.Validate(); err != nil {
		return err
	}
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// KnowledgeConfig describes where documents come from and where the
// collection snapshot is kept.
type KnowledgeConfig struct {
	Backend       string `yaml:"backend"`
	SnapshotPath  string `yaml:"snapshot_path"`
	SQLitePath    string `yaml:"sqlite_path"`
	DocumentsDir  string `yaml:"documents_dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	AutoLoad      bool   `yaml:"auto_load"`
	Watch         bool   `yaml:"watch"`
}

// MaxFileSize returns the upload limit in bytes.
func (c *KnowledgeConfig) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// Validate validates the knowledge configuration.
func (c *KnowledgeConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendJSON, BackendSQLite)),
		validation.Field(&c.SnapshotPath, validation.When(c.Backend == BackendJSON, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == BackendSQLite, validation.Required)),
		validation.Field(&c.DocumentsDir, validation.Required),
		validation.Field(&c.MaxFileSizeMB, validation.Required, validation.Min(1)),
	)
}

// ChunkingConfig controls how document content is split for retrieval.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// Validate validates the chunking configuration.
func (c *ChunkingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Required, validation.Min(1)),
		validation.Field(&c.Overlap, validation.Min(0)),
	)
}

// RetrievalConfig holds lexical search tuning.
//
// SimilarityThreshold is the cut-off an embedding search would use; lexical
// scores are lower on the whole, so the effective floor is the threshold
// scaled by FloorRatio unless SimilarityFloor is set explicitly.
type RetrievalConfig struct {
	TopK                int      `yaml:"top_k"`
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	FloorRatio          float64  `yaml:"floor_ratio"`
	SimilarityFloor     *float64 `yaml:"similarity_floor"`
}

// Floor returns the minimum similarity a search result must reach.
func (c *RetrievalConfig) Floor() float64 {
	if c.SimilarityFloor != nil {
		return *c.SimilarityFloor
	}
	return c.SimilarityThreshold * c.FloorRatio
}

// Validate validates the retrieval configuration.
func (c *RetrievalConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TopK, validation.Required, validation.Min(1)),
		validation.Field(&c.SimilarityThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.FloorRatio, validation.Min(0.0), validation.Max(1.0)),
	); err != nil {
		return err
	}
	if c.SimilarityFloor != nil && (*c.SimilarityFloor < 0 || *c.SimilarityFloor > 1) {
		return fmt.Errorf("retrieval: similarity_floor must be within [0, 1], got %v", *c.SimilarityFloor)
	}
	return nil
}

// LLMConfig configures the hosted model used to generate answers.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	MaxSources        int           `yaml:"max_sources"`
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderGemini, ProviderOpenAI)),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.BaseURL, validation.When(c.Provider == ProviderOpenAI, validation.Required)),
		validation.Field(&c.MaxTokens, validation.Min(0)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.RequestsPerMinute, validation.Min(0)),
		validation.Field(&c.MaxSources, validation.Min(0)),
	)
}

// HasAPIKey reports whether a usable API key is configured. The placeholder
// shipped in .env.example does not count.
func (c *LLMConfig) HasAPIKey() bool {
	return c.APIKey != "" && c.APIKey != "your_gemini_api_key_here"
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8501,
			},
		},
		Knowledge: KnowledgeConfig{
			Backend:       BackendJSON,
			SnapshotPath:  "./data/knowledge_base/knowledge_base.json",
			SQLitePath:    "./data/knowledge_base/finsage.db",
			DocumentsDir:  "./data/documents",
			MaxFileSizeMB: 10,
			AutoLoad:      true,
			Watch:         true,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:                5,
			SimilarityThreshold: 0.7,
			FloorRatio:          0.5,
		},
		LLM: LLMConfig{
			Provider:          ProviderGemini,
			Model:             "gemini-pro",
			MaxTokens:         1000,
			Temperature:       0.7,
			Timeout:           60 * time.Second,
			RequestsPerMinute: 60,
			MaxSources:        3,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
