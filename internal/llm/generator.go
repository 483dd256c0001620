package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/finsage/internal/models"
)

// Generator answers questions through a Completer.
type Generator struct {
	completer Completer
}

// NewGenerator creates a generator backed by c.
func NewGenerator(c Completer) *Generator {
	return &Generator{completer: c}
}

// Generate builds the prompt, calls the model and attaches passages as
// sources. Confidence is higher when passages were supplied.
func (g *Generator) Generate(ctx context.Context, question string, passages []models.SearchResult) (Generation, error) {
	reply, err := g.completer.Complete(ctx, BuildPrompt(question, passages))
	if err != nil {
		return Generation{}, fmt.Errorf("llm: generate: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Generation{}, ErrEmptyResponse
	}
	confidence := ConfidenceWithoutContext
	if len(passages) > 0 {
		confidence = ConfidenceWithContext
	}
	sources := make([]models.SearchResult, len(passages))
	copy(sources, passages)
	return Generation{Answer: reply, Confidence: confidence, Sources: sources}, nil
}
