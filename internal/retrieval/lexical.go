// Package retrieval ranks stored chunks against a question.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/starford/finsage/internal/models"
)

// Searcher returns the passages most relevant to query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, floor float64) []models.SearchResult
}

// ChunkSource supplies a consistent view of every stored chunk.
type ChunkSource interface {
	Chunks(ctx context.Context) []models.ChunkRef
}

// Lexical scores chunks by exact phrase occurrences and shared words.
type Lexical struct {
	Source ChunkSource
}

var _ Searcher = (*Lexical)(nil)

// NewLexical creates a lexical searcher over src.
func NewLexical(src ChunkSource) *Lexical {
	return &Lexical{Source: src}
}

// Search scores every chunk, orders them by raw score (ties keep document
// and chunk order), drops results below floor and returns at most topK. A
// query with no words matches nothing.
func (l *Lexical) Search(ctx context.Context, query string, topK int, floor float64) []models.SearchResult {
	if topK <= 0 {
		return nil
	}
	q := strings.ToLower(query)
	qWords := strings.Fields(q)
	if len(qWords) == 0 {
		return nil
	}
	qSet := wordSet(qWords)
	denom := float64(len(qWords) + 3)

	var results []models.SearchResult
	for _, c := range l.Source.Chunks(ctx) {
		text := strings.ToLower(c.Text)
		raw := score(q, qSet, text)
		if raw == 0 {
			continue
		}
		results = append(results, models.SearchResult{
			Content:    c.Text,
			Filename:   c.Title,
			FileType:   c.FileType,
			Similarity: min(float64(raw)/denom, 1),
			ChunkIndex: c.Index,
			RawScore:   raw,
			DocumentID: c.DocumentID,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RawScore > results[j].RawScore
	})

	out := results[:0]
	for _, r := range results {
		if r.Similarity < floor {
			continue
		}
		out = append(out, r)
		if len(out) == topK {
			break
		}
	}
	return out
}

// score is three points per exact occurrence of the whole query plus one
// per distinct query word present in the chunk.
func score(query string, qSet map[string]struct{}, chunk string) int {
	exact := 0
	if query != "" {
		exact = strings.Count(chunk, query)
	}
	overlap := 0
	for w := range wordSet(strings.Fields(chunk)) {
		if _, ok := qSet[w]; ok {
			overlap++
		}
	}
	return exact*3 + overlap
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
