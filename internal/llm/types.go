// Package llm turns a question and its retrieved passages into an answer
// using a hosted language model.
package llm

import (
	"context"
	"errors"

	"github.com/starford/finsage/internal/models"
)

// Confidence values reported with a generated answer. They are a coarse
// heuristic, not a calibrated probability.
const (
	ConfidenceWithContext    = 0.8
	ConfidenceWithoutContext = 0.4
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer sends a single prompt to a model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generation is the result of answering one question.
type Generation struct {
	Answer     string                `json:"answer"`
	Confidence float64               `json:"confidence"`
	Sources    []models.SearchResult `json:"sources"`
}
