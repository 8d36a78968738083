package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/coursemind/coursemind/internal/log"
	"github.com/coursemind/coursemind/internal/rag"
)

// ingestor is the slice of the ingestion pipeline the handler needs.
type ingestor interface {
	Ingest(ctx context.Context, documentID uuid.UUID, text string) (*rag.IngestResult, error)
}

// IngestHandler handles document ingestion endpoints.
type IngestHandler struct {
	pipeline ingestor
	logger   log.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(pipeline ingestor, logger log.Logger) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers ingestion routes on the given mux.
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents/ingest", h.ingest)
}

// IngestRequest is the body of POST /api/documents/ingest. Text is the
// document's extracted plain text, supplied by the text-extraction
// collaborator.
type IngestRequest struct {
	DocumentID uuid.UUID `json:"documentId"`
	// CourseID is optional caller metadata. Retrieval scopes by document,
	// so the course id is only carried into logs.
	CourseID uuid.UUID `json:"courseId,omitzero"`
	Text     string    `json:"text"`
}

func (h *IngestHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.DocumentID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "documentId is required")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	logger := h.logger
	if req.CourseID != uuid.Nil {
		logger = logger.With("course_id", req.CourseID)
	}

	result, err := h.pipeline.Ingest(r.Context(), req.DocumentID, req.Text)
	if err != nil {
		logger.Error("ingestion failed", "document_id", req.DocumentID, "error", err)
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
