// Package knowledge holds the in-memory document collection and keeps it in
// sync with its persisted snapshot.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/finsage/internal/apperr"
	"github.com/starford/finsage/internal/checksum"
	"github.com/starford/finsage/internal/chunker"
	"github.com/starford/finsage/internal/extract"
	"github.com/starford/finsage/internal/models"
	"github.com/starford/finsage/internal/storage"
)

// Change kinds reported through Options.OnChange.
const (
	ChangeAdded   = "added"
	ChangeDeleted = "deleted"
	ChangeCleared = "cleared"
)

// Change describes a committed mutation of the collection.
type Change struct {
	Kind  string
	ID    string
	Title string
}

// Options configures a Store.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Logger       *slog.Logger
	// OnChange is called after a mutation has been persisted. It runs
	// outside the store lock.
	OnChange func(Change)
	// Now overrides the clock used for created_at stamps.
	Now func() time.Time
}

// AddRequest is the canonical input to Store.Add.
type AddRequest struct {
	Content  string
	Title    string
	FileType string
	Metadata map[string]any
}

// Store is the authoritative document collection.
//
// Mutations hold the write lock across the whole read-modify-persist cycle.
// The docs slice is replaced on every mutation and never modified in place.
type Store struct {
	mu   sync.RWMutex
	docs []models.Document
	snap storage.Snapshotter
	opts Options
}

// Open creates a store and loads the persisted collection from snap.
func Open(ctx context.Context, snap storage.Snapshotter, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	docs, err := snap.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("knowledge: load snapshot: %w", err)
	}
	opts.Logger.Info("knowledge base loaded", slog.Int("documents", len(docs)))
	return &Store{docs: docs, snap: snap, opts: opts}, nil
}

// Add chunks and stores a new document and returns its ID.
func (s *Store) Add(ctx context.Context, req AddRequest) (string, error) {
	doc, err := s.newDocument(req)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if dup := s.duplicateOf(doc.ID); dup != nil {
		s.mu.Unlock()
		return "", dup
	}
	next := make([]models.Document, len(s.docs), len(s.docs)+1)
	copy(next, s.docs)
	next = append(next, doc)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	s.opts.Logger.Info("document added",
		slog.String("id", doc.ID),
		slog.String("title", doc.Title),
		slog.Int("chunks", len(doc.Chunks)),
	)
	s.notify(Change{Kind: ChangeAdded, ID: doc.ID, Title: doc.Title})
	return doc.ID, nil
}

// Replace stores req as the only document carrying its title: documents with
// the same title are removed in the same commit. Content identical to a
// stored document is rejected as a duplicate and nothing changes. It returns
// the new ID and how many documents were replaced.
func (s *Store) Replace(ctx context.Context, req AddRequest) (string, int, error) {
	doc, err := s.newDocument(req)
	if err != nil {
		return "", 0, err
	}

	s.mu.Lock()
	if dup := s.duplicateOf(doc.ID); dup != nil {
		s.mu.Unlock()
		return "", 0, dup
	}
	var removed []Change
	next := make([]models.Document, 0, len(s.docs)+1)
	for _, d := range s.docs {
		if d.Title == doc.Title {
			removed = append(removed, Change{Kind: ChangeDeleted, ID: d.ID, Title: d.Title})
			continue
		}
		next = append(next, d)
	}
	next = append(next, doc)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return "", 0, err
	}
	s.mu.Unlock()

	s.opts.Logger.Info("document replaced",
		slog.String("id", doc.ID),
		slog.String("title", doc.Title),
		slog.Int("replaced", len(removed)),
		slog.Int("chunks", len(doc.Chunks)),
	)
	for _, c := range removed {
		s.notify(c)
	}
	s.notify(Change{Kind: ChangeAdded, ID: doc.ID, Title: doc.Title})
	return doc.ID, len(removed), nil
}

// newDocument validates req and builds the document to store, chunks and
// default metadata included.
func (s *Store) newDocument(req AddRequest) (models.Document, error) {
	if strings.TrimSpace(req.Content) == "" {
		return models.Document{}, apperr.ErrEmptyContent
	}
	id := checksum.DocumentID(req.Content)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "untitled"
	}
	fileType := extract.TypeText
	if req.FileType != "" {
		fileType = extract.NormalizeType(req.FileType)
	}
	chunks := chunker.Chunk(req.Content, s.opts.ChunkSize, s.opts.ChunkOverlap)
	now := s.opts.Now().UTC()

	meta := models.CopyMetadata(req.Metadata)
	if meta == nil {
		meta = make(map[string]any, 3)
	}
	setDefault(meta, "source", "manual")
	setDefault(meta, "size", int64(len(req.Content)))
	setDefault(meta, "added_at", now.Format(time.RFC3339))

	return models.Document{
		ID:          id,
		Title:       title,
		FileType:    fileType,
		Content:     req.Content,
		Chunks:      chunks,
		TotalChunks: len(chunks),
		Metadata:    meta,
		CreatedAt:   now,
	}, nil
}

// duplicateOf reports the stored document with the given ID, if any. Callers
// must hold the lock.
func (s *Store) duplicateOf(id string) *apperr.DuplicateError {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return &apperr.DuplicateError{ID: id, Title: s.docs[i].Title}
		}
	}
	return nil
}

// List returns summaries of every stored document in insertion order.
func (s *Store) List(_ context.Context) []models.DocumentSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DocumentSummary, 0, len(s.docs))
	for i := range s.docs {
		out = append(out, s.docs[i].Summary())
	}
	return out
}

// Get returns a copy of the document with the given ID.
func (s *Store) Get(_ context.Context, id string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ID == id {
			d.Chunks = slices.Clone(d.Chunks)
			d.Metadata = models.CopyMetadata(d.Metadata)
			return d, nil
		}
	}
	return models.Document{}, fmt.Errorf("knowledge: document %s: %w", id, apperr.ErrNotFound)
}

// Delete removes the document with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.docs, func(d models.Document) bool { return d.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("knowledge: document %s: %w", id, apperr.ErrNotFound)
	}
	title := s.docs[idx].Title
	next := make([]models.Document, 0, len(s.docs)-1)
	next = append(next, s.docs[:idx]...)
	next = append(next, s.docs[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.opts.Logger.Info("document deleted", slog.String("id", id), slog.String("title", title))
	s.notify(Change{Kind: ChangeDeleted, ID: id, Title: title})
	return nil
}

// Clear removes every document.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	removed := len(s.docs)
	if err := s.commit(ctx, []models.Document{}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.opts.Logger.Info("knowledge base cleared", slog.Int("removed", removed))
	s.notify(Change{Kind: ChangeCleared})
	return nil
}

// Stats summarizes the collection.
func (s *Store) Stats(_ context.Context) models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := models.Stats{DocumentCount: len(s.docs), FileTypes: []string{}}
	seen := make(map[string]struct{})
	for _, d := range s.docs {
		st.TotalChunkCount += len(d.Chunks)
		if _, ok := seen[d.FileType]; !ok {
			seen[d.FileType] = struct{}{}
			st.FileTypes = append(st.FileTypes, d.FileType)
		}
	}
	sort.Strings(st.FileTypes)
	return st
}

// HasTitle reports whether a document with the given title is stored.
func (s *Store) HasTitle(_ context.Context, title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.docs, func(d models.Document) bool { return d.Title == title })
}

// Chunks returns every chunk of every document, ordered by document
// insertion and then chunk index, from a single consistent view.
func (s *Store) Chunks(_ context.Context) []models.ChunkRef {
	s.mu.RLock()
	docs := s.docs
	s.mu.RUnlock()

	var out []models.ChunkRef
	for _, d := range docs {
		for i, text := range d.Chunks {
			out = append(out, models.ChunkRef{
				DocumentID: d.ID,
				Title:      d.Title,
				FileType:   d.FileType,
				Index:      i,
				Text:       text,
			})
		}
	}
	return out
}

// commit persists next and installs it. On failure the in-memory collection
// is reloaded from the snapshot. Callers must hold the write lock.
func (s *Store) commit(ctx context.Context, next []models.Document) error {
	err := s.snap.Save(ctx, next)
	if err == nil {
		s.docs = next
		return nil
	}
	s.opts.Logger.Error("persist knowledge base", slog.String("error", err.Error()))
	if docs, loadErr := s.snap.Load(ctx); loadErr == nil {
		s.docs = docs
	} else {
		s.opts.Logger.Error("reload knowledge base", slog.String("error", loadErr.Error()))
	}
	return fmt.Errorf("knowledge: %w: %w", apperr.ErrPersistence, err)
}

func (s *Store) notify(c Change) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(c)
	}
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
