package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrRateLimited indicates the provider rejected the call for exceeding quota.
var ErrRateLimited = errors.New("llm: rate limit exceeded")

// GeminiOptions configures the Gemini provider.
type GeminiOptions struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	// Endpoint overrides the API base URL.
	Endpoint string
}

// Gemini implements Completer using the Generative Language API.
type Gemini struct {
	svc   *generativelanguage.Service
	model string
	opts  GeminiOptions
}

// NewGemini creates a Gemini client authenticated with an API key.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm: gemini api key is empty")
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := generativelanguage.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini service: %w", err)
	}
	model := opts.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &Gemini{svc: svc, model: model, opts: opts}, nil
}

// Complete sends prompt as a single user turn and concatenates the text
// parts of the first candidate.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
		GenerationConfig: &generativelanguage.GenerationConfig{
			MaxOutputTokens: int64(g.opts.MaxTokens),
			Temperature:     g.opts.Temperature,
			ForceSendFields: []string{"Temperature"},
		},
	}
	resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
