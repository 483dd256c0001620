package api

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/starford/finsage/internal/extract"
	"github.com/starford/finsage/internal/knowledge"
)

// Upload handles POST /api/documents/upload (multipart/form-data, field "file").
//
//	@Summary		Upload a txt, pdf or docx file
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Document"
//	@Success		201		{object}	CreateDocumentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.deps.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(limit); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file exceeds the upload limit"))
		return
	}
	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "." || name == string(filepath.Separator) {
		writeJSON(w, http.StatusBadRequest, errorBody("filename is required"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	res, err := extract.Extract(data, filepath.Ext(name))
	if err != nil {
		writeError(w, "extract upload", err)
		return
	}
	id, err := h.deps.Store.Add(r.Context(), knowledge.AddRequest{
		Content:  res.Text,
		Title:    name,
		FileType: res.FileType,
		Metadata: map[string]any{
			"source":    "upload",
			"file_size": int64(len(data)),
			"file_type": res.FileType,
		},
	})
	if err != nil {
		writeError(w, "add upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateDocumentResponse{ID: id, Title: name, SkippedPages: res.SkippedPages})
}
