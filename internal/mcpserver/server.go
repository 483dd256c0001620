// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes finsage tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/finsage/internal/apperr"
	"github.com/starford/finsage/internal/assistant"
	"github.com/starford/finsage/internal/knowledge"
	"github.com/starford/finsage/internal/models"
	"github.com/starford/finsage/internal/retrieval"
)

const guideURI = "finsage://knowledge-guide"

// Store is the knowledge base as seen by MCP tools.
type Store interface {
	Add(ctx context.Context, req knowledge.AddRequest) (string, error)
	List(ctx context.Context) []models.DocumentSummary
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) models.Stats
}

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, question string) assistant.Answer
}

// Deps are the collaborators the tools call into.
type Deps struct {
	Store     Store
	Assistant Asker
	Searcher  retrieval.Searcher
	TopK      int
	Floor     float64
	// MaxFileSize bounds ingest_file downloads; zero uses 10 MB.
	MaxFileSize int64
}

// Server wraps the MCP server with finsage tools.
type Server struct {
	mcp  *server.MCPServer
	deps Deps
}

// New creates a new MCP server with all finsage tools registered.
func New(deps Deps) *Server {
	if deps.MaxFileSize <= 0 {
		deps.MaxFileSize = 10 << 20
	}
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"finsage",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a personal finance question using the knowledge base. "+
			"Off-topic questions are declined."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
	), s.askQuestion)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Find the passages in the knowledge base that best match a query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of passages (default from configuration)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List every document in the knowledge base."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("add_document",
		mcp.WithDescription("Store a plain-text reference document. Identical content is rejected as a duplicate."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Display name, usually a filename")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("file_type", mcp.Description("Original file type, e.g. .txt (default .txt)")),
	), s.addDocument)

	s.mcp.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a document by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID as returned by list_documents")),
	), s.deleteDocument)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Document count, chunk count and file types in the knowledge base."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("ingest_file",
		mcp.WithDescription("Fetch a .txt, .pdf or .docx file from a base64 data URI or an http(s) URL "+
			"and add its text to the knowledge base. Read the "+guideURI+" resource for details."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URI or http(s) URL of the file")),
		mcp.WithString("filename", mcp.Description("Title to store the document under")),
	), s.ingestFile)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Knowledge Guide",
			mcp.WithResourceDescription("Supported formats and how documents and questions are handled."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) askQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.deps.Assistant.Ask(ctx, question)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return mcp.NewToolResultError("query must not be blank"), nil
	}
	limit := req.GetInt("limit", s.deps.TopK)
	if limit <= 0 {
		limit = s.deps.TopK
	}
	results := s.deps.Searcher.Search(ctx, query, limit, s.deps.Floor)
	if len(results) == 0 {
		return mcp.NewToolResultText("no matching passages"), nil
	}
	return jsonResult(results), nil
}

func (s *Server) listDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.deps.Store.List(ctx)), nil
}

func (s *Server) addDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.deps.Store.Add(ctx, knowledge.AddRequest{
		Title:    title,
		Content:  content,
		FileType: req.GetString("file_type", ""),
		Metadata: map[string]any{"source": "mcp"},
	})
	if err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s (%s)", title, id)), nil
}

func (s *Server) deleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.deps.Store.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.deps.Store.Stats(ctx)), nil
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     KnowledgeGuide,
		},
	}, nil
}

// toolError turns a store error into a message suitable for the client.
func toolError(err error) string {
	var dup *apperr.DuplicateError
	switch {
	case errors.As(err, &dup):
		return dup.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return "document not found"
	case errors.Is(err, apperr.ErrEmptyContent):
		return "document content is empty"
	default:
		return err.Error()
	}
}
