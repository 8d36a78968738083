package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursemind/coursemind/internal/extract"
	"github.com/coursemind/coursemind/internal/log"
)

// extractor is the slice of the structured-extraction orchestrator the
// handler needs.
type extractor interface {
	Syllabus(ctx context.Context, rawText string) ([]extract.SyllabusTopic, error)
	Quiz(ctx context.Context, rawText string, count int) ([]extract.QuizQuestion, int, error)
	Pages(ctx context.Context, tocText, topic string) (*extract.PageRange, error)
}

// ExtractHandler handles the structured-extraction endpoints.
type ExtractHandler struct {
	pipeline extractor
	logger   log.Logger
}

// NewExtractHandler creates a new extraction handler.
func NewExtractHandler(pipeline extractor, logger log.Logger) *ExtractHandler {
	return &ExtractHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers extraction routes on the given mux.
func (h *ExtractHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/extract/syllabus", h.syllabus)
	mux.HandleFunc("POST /api/extract/quiz", h.quiz)
	mux.HandleFunc("POST /api/extract/pages", h.pages)
}

// SyllabusRequest is the body of POST /api/extract/syllabus.
type SyllabusRequest struct {
	Text string `json:"text"`
}

// SyllabusResponse carries the extracted topics.
type SyllabusResponse struct {
	Topics []extract.SyllabusTopic `json:"topics"`
}

func (h *ExtractHandler) syllabus(w http.ResponseWriter, r *http.Request) {
	var req SyllabusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	topics, err := h.pipeline.Syllabus(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("syllabus extraction failed", "error", err)
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SyllabusResponse{Topics: topics})
}

// QuizRequest is the body of POST /api/extract/quiz.
type QuizRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count,omitempty"`
}

// QuizResponse carries the generated questions. Dropped counts records
// the model produced but that failed validation.
type QuizResponse struct {
	Questions []extract.QuizQuestion `json:"questions"`
	Dropped   int                    `json:"dropped"`
}

func (h *ExtractHandler) quiz(w http.ResponseWriter, r *http.Request) {
	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	questions, dropped, err := h.pipeline.Quiz(r.Context(), req.Text, req.Count)
	if err != nil {
		h.logger.Error("quiz generation failed", "error", err)
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuizResponse{Questions: questions, Dropped: dropped})
}

// PagesRequest is the body of POST /api/extract/pages.
type PagesRequest struct {
	TOCText string `json:"tocText"`
	Topic   string `json:"topic"`
}

// PagesResponse carries the located page range. Estimated is always true
// because page numbers come from the model's reading of the contents.
type PagesResponse struct {
	StartPage int  `json:"startPage"`
	EndPage   int  `json:"endPage"`
	Estimated bool `json:"estimated"`
}

func (h *ExtractHandler) pages(w http.ResponseWriter, r *http.Request) {
	var req PagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.TOCText == "" || req.Topic == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tocText and topic are required")
		return
	}

	pages, err := h.pipeline.Pages(r.Context(), req.TOCText, req.Topic)
	if err != nil {
		h.logger.Error("page lookup failed", "error", err, "topic", req.Topic)
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PagesResponse{
		StartPage: pages.StartPage,
		EndPage:   pages.EndPage,
		Estimated: true,
	})
}
