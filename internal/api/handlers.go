package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/ingest"
	"github.com/starford/finsage/internal/knowledge"
	"github.com/starford/finsage/internal/models"
	"github.com/starford/finsage/internal/retrieval"
)

// DocumentStore is the knowledge base as seen by the API.
type DocumentStore interface {
	Add(ctx context.Context, req knowledge.AddRequest) (string, error)
	List(ctx context.Context) []models.DocumentSummary
	Get(ctx context.Context, id string) (models.Document, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) models.Stats
}

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, question string) assistant.Answer
}

// FolderScanner ingests the documents folder on demand.
type FolderScanner interface {
	Scan(ctx context.Context) ([]ingest.FileResult, error)
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store     DocumentStore
	Assistant Asker
	Searcher  retrieval.Searcher
	Scanner   FolderScanner
	// TopK and Floor are used by GET /search when no limit is given.
	TopK           int
	Floor          float64
	MaxUploadBytes int64
}

// Handler holds API route handlers.
type Handler struct {
	deps Deps
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 10 << 20
	}
	return &Handler{deps: deps}
}

// Ask handles POST /api/ask.
//
//	@Summary		Ask a personal finance question
//	@Tags			ask
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AskRequest	true	"Question"
//	@Success		200		{object}	AskResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ans := h.deps.Assistant.Ask(r.Context(), req.Question)
	writeJSON(w, http.StatusOK, AskResponse{Answer: ans, AnswerHTML: renderMarkdown(ans.Text)})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List stored documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: h.deps.Store.List(r.Context())})
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a document with its content and chunks
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	models.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Add a text document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to add"
//	@Success		201		{object}	CreateDocumentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id, err := h.deps.Store.Add(r.Context(), knowledge.AddRequest{
		Content:  req.Content,
		Title:    req.Title,
		FileType: req.FileType,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateDocumentResponse{ID: id, Title: req.Title})
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			id	path	string	true	"Document ID"
//	@Success		204	"Document deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearDocuments handles DELETE /api/documents.
//
//	@Summary		Remove every document
//	@Tags			documents
//	@Success		204	"Knowledge base cleared"
//	@Security		BearerAuth
//	@Router			/documents [delete]
func (h *Handler) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.Clear(r.Context()); err != nil {
		writeError(w, "clear documents", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats.
//
//	@Summary		Knowledge base statistics
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	models.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Store.Stats(r.Context()))
}

// Search handles GET /api/search.
//
//	@Summary		Lexical search across document chunks
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = h.deps.TopK
	}
	results := h.deps.Searcher.Search(r.Context(), q, limit, h.deps.Floor)
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Scan handles POST /api/ingest/scan.
//
//	@Summary		Load new files from the documents folder
//	@Tags			ingest
//	@Produce		json
//	@Success		200	{object}	ScanResponse
//	@Security		BearerAuth
//	@Router			/ingest/scan [post]
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.deps.Scanner == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("folder ingestion is not configured"))
		return
	}
	files, err := h.deps.Scanner.Scan(r.Context())
	if err != nil {
		slog.Error("scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Files: files})
}
