package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/finsage/internal/models"
)

// JSONFile implements Snapshotter backed by a single indented JSON file.
type JSONFile struct {
	path string // absolute path to the snapshot file
}

// NewJSONFile creates a JSON snapshotter for path. The parent directory is
// created on first save.
func NewJSONFile(path string) (*JSONFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve snapshot path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: snapshot path is a directory: %s", abs)
	}
	return &JSONFile{path: abs}, nil
}

// Path returns the absolute snapshot location.
func (j *JSONFile) Path() string { return j.path }

// Load reads the snapshot file. A missing file yields an empty collection.
func (j *JSONFile) Load(ctx context.Context) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read snapshot: %w", err)
	}
	docs, err := decodeDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("storage: decode snapshot %s: %w", j.path, err)
	}
	return docs, nil
}

// Save atomically writes docs: tmp file → fsync → rename.
func (j *JSONFile) Save(ctx context.Context, docs []models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	content, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".finsage-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (j *JSONFile) Close() error { return nil }
