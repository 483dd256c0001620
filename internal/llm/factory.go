package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrNotConfigured is returned when no usable credentials are available.
var ErrNotConfigured = errors.New("llm: provider not configured")

// Config selects and tunes a provider.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}

// New builds a rate-limited generator for cfg.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	var c Completer
	switch cfg.Provider {
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini api key is empty", ErrNotConfigured)
		}
		g, err := NewGemini(ctx, GeminiOptions{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Endpoint:    cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		c = g
	case ProviderOpenAI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: openai base url is empty", ErrNotConfigured)
		}
		o := NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model)
		o.MaxTokens = cfg.MaxTokens
		o.Temperature = cfg.Temperature
		c = o
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	return NewGenerator(NewRateLimited(c, cfg.RequestsPerMinute)), nil
}
