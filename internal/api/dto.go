package api

import (
	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/ingest"
	"github.com/starford/finsage/internal/models"
)

// AskRequest is the request body for asking a question.
type AskRequest struct {
	Question string `json:"question" example:"How big should my emergency fund be?"`
}

// AskResponse is an answer plus its Markdown rendered as HTML.
type AskResponse struct {
	assistant.Answer
	AnswerHTML string `json:"answer_html"`
}

// CreateDocumentRequest is the request body for adding a document.
type CreateDocumentRequest struct {
	Title    string         `json:"title" example:"budgeting.txt"`
	Content  string         `json:"content"`
	FileType string         `json:"file_type,omitempty" example:".txt"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateDocumentResponse carries the ID of a stored document.
type CreateDocumentResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SkippedPages int    `json:"skipped_pages,omitempty"`
}

// DocumentListResponse is the response for listing documents.
type DocumentListResponse struct {
	Documents []models.DocumentSummary `json:"documents"`
}

// SearchResponse is the response for a search query.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// ScanResponse reports the per-file outcome of a folder scan.
type ScanResponse struct {
	Files []ingest.FileResult `json:"files"`
}
