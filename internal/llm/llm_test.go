package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/finsage/internal/models"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func passages(texts ...string) []models.SearchResult {
	out := make([]models.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = models.SearchResult{Content: t, Filename: "doc.txt", ChunkIndex: i}
	}
	return out
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("How big should my emergency fund be?", passages("Three to six months.", "Keep it liquid."))
	assert.Contains(t, p, "Document 1:\nThree to six months.\n\nDocument 2:\nKeep it liquid.")
	assert.Contains(t, p, "USER QUESTION: How big should my emergency fund be?")
	assert.NotContains(t, p, noContextNotice)

	empty := BuildPrompt("What is APR?", nil)
	assert.Contains(t, empty, noContextNotice)
	assert.NotContains(t, empty, "Document 1:")
}

func TestGenerator_Confidence(t *testing.T) {
	var seen string
	g := NewGenerator(completerFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return "  Save three to six months of expenses.  ", nil
	}))

	gen, err := g.Generate(context.Background(), "emergency fund?", passages("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "Save three to six months of expenses.", gen.Answer)
	assert.Equal(t, ConfidenceWithContext, gen.Confidence)
	assert.Len(t, gen.Sources, 2)
	assert.Contains(t, seen, "Document 2:\nb")

	gen, err = g.Generate(context.Background(), "emergency fund?", nil)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceWithoutContext, gen.Confidence)
	assert.Empty(t, gen.Sources)
}

func TestGenerator_Errors(t *testing.T) {
	boom := errors.New("boom")
	g := NewGenerator(completerFunc(func(context.Context, string) (string, error) { return "", boom }))
	_, err := g.Generate(context.Background(), "q", nil)
	assert.ErrorIs(t, err, boom)

	g = NewGenerator(completerFunc(func(context.Context, string) (string, error) { return " \n", nil }))
	_, err = g.Generate(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_Complete(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
		wantErr error
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				var req chatRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "test-model", req.Model)
				assert.Equal(t, 256, req.MaxTokens)
				require.Len(t, req.Messages, 1)
				assert.Equal(t, "hello", req.Messages[0].Content)
				_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there!"},"finish_reason":"stop"}]}`))
			},
			want: "Hi there!",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			wantErr: ErrEmptyResponse,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr: ErrRateLimited,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewOpenAI(srv.URL+"/", "test-key", "test-model")
			c.MaxTokens = 256
			got, err := c.Complete(context.Background(), "hello")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOpenAI_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "", "m").Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestGemini_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-pro:generateContent"), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "contents")
		assert.Contains(t, body, "generationConfig")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Pay "},{"text":"yourself first."}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{
		APIKey:      "k",
		Model:       "gemini-pro",
		MaxTokens:   1000,
		Temperature: 0.7,
		Endpoint:    srv.URL + "/",
	})
	require.NoError(t, err)
	got, err := g.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Pay yourself first.", got)
}

func TestGemini_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{APIKey: "k", Model: "gemini-pro", Endpoint: srv.URL + "/"})
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiOptions{Model: "gemini-pro"})
	assert.Error(t, err)
}

func TestRateLimited(t *testing.T) {
	var calls atomic.Int32
	inner := completerFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "ok", nil
	})

	// One call per minute: the first passes, the second must wait.
	rl := NewRateLimited(inner, 1)
	_, err := rl.Complete(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = rl.Complete(ctx, "b")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	unlimited := NewRateLimited(inner, 0)
	for i := 0; i < 5; i++ {
		_, err := unlimited.Complete(context.Background(), "c")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(6), calls.Load())
}

func TestNew_Factory(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderGemini})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{Provider: ProviderOpenAI})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{Provider: "bedrock"})
	assert.Error(t, err)

	g, err := New(context.Background(), Config{Provider: ProviderOpenAI, BaseURL: "http://localhost:1", Model: "m"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}
