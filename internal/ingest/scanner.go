// Package ingest loads reference documents from a folder into the knowledge base.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/finsage/internal/apperr"
	"github.com/starford/finsage/internal/extract"
	"github.com/starford/finsage/internal/knowledge"
)

// Outcomes of ingesting a single file.
const (
	OutcomeAdded   = "added"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// SourcePredefined marks documents that came from the documents folder.
const SourcePredefined = "predefined"

// Store is the subset of the knowledge base the scanner needs.
type Store interface {
	Add(ctx context.Context, req knowledge.AddRequest) (string, error)
	Replace(ctx context.Context, req knowledge.AddRequest) (string, int, error)
	HasTitle(ctx context.Context, title string) bool
}

// FileResult reports what happened to one file.
type FileResult struct {
	Name         string `json:"name"`
	Outcome      string `json:"outcome"`
	ID           string `json:"id,omitempty"`
	SkippedPages int    `json:"skipped_pages,omitempty"`
	Replaced     int    `json:"replaced,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Err          error  `json:"-"`
}

// Scanner ingests supported files from Dir.
type Scanner struct {
	Store  Store
	Dir    string
	Logger *slog.Logger
}

// NewScanner creates a scanner for dir.
func NewScanner(store Store, dir string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{Store: store, Dir: dir, Logger: logger}
}

// Scan ingests every supported file in Dir (non-recursive) whose name is not
// already a document title. Files are processed in name order. A missing
// directory is created and yields no results. Per-file failures are reported
// in the results and never abort the scan.
func (s *Scanner) Scan(ctx context.Context) ([]FileResult, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		if mkErr := os.MkdirAll(s.Dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("ingest: create documents dir: %w", mkErr)
		}
		s.Logger.Info("scan: created documents dir", slog.String("dir", s.Dir))
		return []FileResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: read documents dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && extract.IsSupported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	results := make([]FileResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if s.Store.HasTitle(ctx, name) {
			results = append(results, FileResult{Name: name, Outcome: OutcomeSkipped, Reason: "already loaded"})
			continue
		}
		results = append(results, s.IngestFile(ctx, filepath.Join(s.Dir, name)))
	}

	var added, failed int
	for _, r := range results {
		switch r.Outcome {
		case OutcomeAdded:
			added++
		case OutcomeFailed:
			failed++
		}
	}
	s.Logger.Info("scan: complete",
		slog.String("dir", s.Dir),
		slog.Int("added", added),
		slog.Int("failed", failed),
		slog.Int("seen", len(results)),
	)
	return results, nil
}

// IngestFile extracts and stores the file at path. Duplicate content is
// reported as skipped.
func (s *Scanner) IngestFile(ctx context.Context, path string) FileResult {
	return s.ingest(ctx, path, false)
}

// RefreshFile is IngestFile for a file that may have been stored before: any
// document with the same title is replaced by the new content.
func (s *Scanner) RefreshFile(ctx context.Context, path string) FileResult {
	return s.ingest(ctx, path, true)
}

func (s *Scanner) ingest(ctx context.Context, path string, replace bool) FileResult {
	name := filepath.Base(path)
	res := FileResult{Name: name}

	info, err := os.Stat(path)
	if err != nil {
		return fail(res, err)
	}
	ext, err := extract.ExtractFile(path)
	if err != nil {
		s.Logger.Warn("ingest: extract failed", slog.String("file", name), slog.String("error", err.Error()))
		return fail(res, err)
	}
	res.SkippedPages = ext.SkippedPages

	req := knowledge.AddRequest{
		Content:  ext.Text,
		Title:    name,
		FileType: ext.FileType,
		Metadata: map[string]any{
			"source":    SourcePredefined,
			"file_size": info.Size(),
			"file_type": ext.FileType,
		},
	}
	var id string
	if replace {
		id, res.Replaced, err = s.Store.Replace(ctx, req)
	} else {
		id, err = s.Store.Add(ctx, req)
	}
	var dup *apperr.DuplicateError
	switch {
	case errors.As(err, &dup):
		res.Outcome = OutcomeSkipped
		res.ID = dup.ID
		res.Reason = dup.Error()
		return res
	case err != nil:
		s.Logger.Warn("ingest: add failed", slog.String("file", name), slog.String("error", err.Error()))
		return fail(res, err)
	}
	res.Outcome = OutcomeAdded
	if res.Replaced > 0 {
		res.Outcome = OutcomeUpdated
	}
	res.ID = id
	return res
}

func fail(res FileResult, err error) FileResult {
	res.Outcome = OutcomeFailed
	res.Err = err
	res.Reason = err.Error()
	return res
}
