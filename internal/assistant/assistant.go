// Package assistant answers personal finance questions from the knowledge base.
package assistant

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks github.com/starford/finsage/internal/assistant Generator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/finsage/internal/llm"
	"github.com/starford/finsage/internal/models"
	"github.com/starford/finsage/internal/retrieval"
)

// State is the lifecycle position of an answer.
type State string

const (
	StateReceived  State = "received"
	StateRejected  State = "rejected"
	StateRetrieved State = "retrieved"
	StateGenerated State = "generated"
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
)

// User-facing notices.
const (
	EmptyQuestionNotice = "Please enter a question."
	OffTopicNotice      = "Not a finance question. I can only help with personal finance topics " +
		"such as budgeting, saving, investing, debt, taxes, retirement and careers."
	ApologyNotice = "I'm sorry, I encountered an error while generating a response. Please try again."
)

// Generator produces an answer from a question and its passages.
type Generator interface {
	Generate(ctx context.Context, question string, passages []models.SearchResult) (llm.Generation, error)
}

// Gate filters out questions that are not about personal finance.
type Gate interface {
	IsInDomain(question string) bool
}

// Options tunes retrieval and the answer shape.
type Options struct {
	TopK       int
	Floor      float64
	MaxSources int
	// GenerateTimeout bounds the model call; zero means no extra deadline.
	GenerateTimeout time.Duration
}

// Answer is the outcome of one question.
type Answer struct {
	ID         string                `json:"id"`
	Question   string                `json:"question"`
	State      State                 `json:"state"`
	Text       string                `json:"answer"`
	Confidence float64               `json:"confidence"`
	Sources    []models.SearchResult `json:"sources"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Assistant runs the gate, retrieval and generation steps for a question.
type Assistant struct {
	gate      Gate
	searcher  retrieval.Searcher
	generator Generator
	opts      Options
	logger    *slog.Logger
}

// New creates an assistant. A nil logger uses slog.Default.
func New(gate Gate, searcher retrieval.Searcher, generator Generator, opts Options, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{gate: gate, searcher: searcher, generator: generator, opts: opts, logger: logger}
}

// Ask answers question. It never fails: generation errors are logged and
// replaced by an apology.
func (a *Assistant) Ask(ctx context.Context, question string) Answer {
	ans := Answer{
		ID:        uuid.NewString(),
		Question:  question,
		State:     StateReceived,
		Sources:   []models.SearchResult{},
		CreatedAt: time.Now().UTC(),
	}
	log := a.logger.With(slog.String("answer_id", ans.ID))

	q := strings.TrimSpace(question)
	if q == "" {
		ans.State = StateRejected
		ans.Text = EmptyQuestionNotice
		return ans
	}
	if !a.gate.IsInDomain(q) {
		log.Info("question rejected", slog.String("reason", "off topic"))
		ans.State = StateRejected
		ans.Text = OffTopicNotice
		return ans
	}

	passages := a.searcher.Search(ctx, q, a.opts.TopK, a.opts.Floor)
	ans.State = StateRetrieved
	log.Debug("passages retrieved", slog.Int("count", len(passages)))

	if a.generator == nil {
		log.Error("generate answer", slog.String("error", "no generator configured"))
		return failed(ans)
	}
	genCtx := ctx
	if a.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.opts.GenerateTimeout)
		defer cancel()
	}
	gen, err := a.generator.Generate(genCtx, q, passages)
	if err != nil {
		log.Error("generate answer", slog.String("error", err.Error()))
		return failed(ans)
	}
	ans.State = StateGenerated

	ans.Text = gen.Answer
	ans.Confidence = gen.Confidence
	sources := gen.Sources
	if a.opts.MaxSources > 0 && len(sources) > a.opts.MaxSources {
		sources = sources[:a.opts.MaxSources]
	}
	ans.Sources = append(ans.Sources, sources...)
	ans.State = StateDelivered
	log.Info("question answered",
		slog.Int("passages", len(passages)),
		slog.Int("sources", len(ans.Sources)),
	)
	return ans
}

func failed(ans Answer) Answer {
	ans.State = StateFailed
	ans.Text = ApologyNotice
	ans.Confidence = 0
	ans.Sources = []models.SearchResult{}
	return ans
}
