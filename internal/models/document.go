// Package models defines the domain types for finsage.
package models

import "time"

// Document is an ingested piece of reference material together with the
// chunks derived from its content. Content and chunks never change after
// ingestion.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	FileType    string         `json:"file_type"`
	Content     string         `json:"content"`
	Chunks      []string       `json:"chunks"`
	TotalChunks int            `json:"total_chunks"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Summary returns the list view of d.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:         d.ID,
		Title:      d.Title,
		FileType:   d.FileType,
		ChunkCount: len(d.Chunks),
		Metadata:   CopyMetadata(d.Metadata),
		CreatedAt:  d.CreatedAt,
	}
}

// DocumentSummary is a lightweight representation returned by list operations.
type DocumentSummary struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	FileType   string         `json:"file_type"`
	ChunkCount int            `json:"chunk_count"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ChunkRef is a chunk of a stored document, denormalized with the parent's
// display fields at read time.
type ChunkRef struct {
	DocumentID string
	Title      string
	FileType   string
	Index      int
	Text       string
}

// SearchResult is one ranked passage returned by a search.
type SearchResult struct {
	Content    string  `json:"content"`
	Filename   string  `json:"filename"`
	FileType   string  `json:"file_type"`
	Similarity float64 `json:"similarity"`
	ChunkIndex int     `json:"chunk_index"`
	RawScore   int     `json:"raw_score"`
	DocumentID string  `json:"document_id"`
}

// Stats summarizes the knowledge base.
type Stats struct {
	DocumentCount   int      `json:"document_count"`
	TotalChunkCount int      `json:"total_chunk_count"`
	FileTypes       []string `json:"file_types"`
}

// CopyMetadata creates a shallow copy of metadata.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
