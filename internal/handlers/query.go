package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/rag"
)

// maxQueryBody caps the request body of a query.
const maxQueryBody = 64 << 10

// QueryHandler answers course questions through the RAG engine.
type QueryHandler struct {
	engine   rag.Engine
	markdown goldmark.Markdown
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine rag.Engine) *QueryHandler {
	return &QueryHandler{
		engine: engine,
		// Raw HTML in model output stays escaped.
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithHardWraps(),
			),
		),
	}
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// SourceResponse is one citation in a query response.
type SourceResponse struct {
	Course string `json:"course"`
	Lesson *int   `json:"lesson,omitempty"`
	Text   string `json:"text"`
	Link   string `json:"link,omitempty"`
}

// QueryResponse is the body returned by POST /api/query.
type QueryResponse struct {
	Answer     string           `json:"answer"`
	AnswerHTML string           `json:"answer_html"`
	Sources    []SourceResponse `json:"sources"`
	SessionID  string           `json:"session_id"`
}

// ServeHTTP handles POST /api/query.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.engine.Ask(ctx, rag.AskRequest{SessionID: req.SessionID, Query: req.Query})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process query")
		return
	}

	html, err := h.render(resp.Answer)
	if err != nil {
		// The plain answer is still useful without HTML.
		logger.WarnContext(ctx, "failed to render answer", "error", err)
	}

	sources := make([]SourceResponse, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		sources = append(sources, SourceResponse{
			Course: s.Course,
			Lesson: s.Lesson,
			Text:   s.Text,
			Link:   s.Link,
		})
	}

	writeJSON(ctx, w, http.StatusOK, QueryResponse{
		Answer:     resp.Answer,
		AnswerHTML: html,
		Sources:    sources,
		SessionID:  resp.SessionID,
	})
}

func (h *QueryHandler) render(answer string) (string, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(answer), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
