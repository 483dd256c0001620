// Package storage persists the knowledge base collection as a whole snapshot.
package storage

import (
	"context"

	"github.com/starford/finsage/internal/models"
)

// Snapshotter loads and saves the complete document collection.
//
// Save replaces the previous snapshot entirely; a reader never observes a
// partially written collection.
type Snapshotter interface {
	// Load returns the last saved collection. A snapshot that was never
	// written loads as an empty collection.
	Load(ctx context.Context) ([]models.Document, error)
	// Save atomically replaces the stored collection with docs.
	Save(ctx context.Context, docs []models.Document) error
	// Close releases any underlying resources.
	Close() error
}

var (
	_ Snapshotter = (*JSONFile)(nil)
	_ Snapshotter = (*SQLite)(nil)
)
