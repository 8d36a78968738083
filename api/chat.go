package api

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"

	"github.com/google/uuid"

	"github.com/coursemind/coursemind/internal/llm"
	"github.com/coursemind/coursemind/internal/log"
	"github.com/coursemind/coursemind/internal/rag"
)

// chatPipeline is the slice of the grounded chat orchestrator the
// handler needs.
type chatPipeline interface {
	Stream(ctx context.Context, req rag.ChatRequest) iter.Seq2[string, error]
}

// ChatHandler handles the grounded streaming chat endpoint.
//
// The response is a streamed plain-text body, flushed per fragment so
// the client sees tokens as the model produces them. A failure before
// the first fragment maps onto the JSON error contract; a failure
// mid-stream aborts the connection, since the status line has already
// been sent and a truncated body must not look like a complete answer.
type ChatHandler struct {
	pipeline chatPipeline
	logger   log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(pipeline chatPipeline, logger log.Logger) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.chat)
}

// ChatRequest is the body of POST /api/chat. The caller supplies the
// full conversation history on every call.
type ChatRequest struct {
	History         []llm.Turn `json:"history"`
	CurrentMessage  string     `json:"currentMessage"`
	Images          []string   `json:"images,omitempty"`
	DocumentScopeID *string    `json:"documentScopeId,omitempty"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.CurrentMessage == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "currentMessage is required")
		return
	}

	pipelineReq := rag.ChatRequest{
		History: req.History,
		Message: req.CurrentMessage,
		Images:  req.Images,
	}
	if req.DocumentScopeID != nil {
		docID, err := uuid.Parse(*req.DocumentScopeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "documentScopeId is not a valid id")
			return
		}
		pipelineReq.DocumentScopeID = &docID
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming not supported")
		return
	}

	started := false
	for fragment, err := range h.pipeline.Stream(r.Context(), pipelineReq) {
		if err != nil {
			if !started {
				h.logger.Error("chat failed before streaming", "error", err)
				writeTaxonomyError(w, err)
				return
			}
			// Headers are gone; abort the connection so the client sees
			// a broken stream, not a silently truncated answer.
			h.logger.Error("chat stream failed mid-flight", "error", err)
			panic(http.ErrAbortHandler)
		}
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, werr := w.Write([]byte(fragment)); werr != nil {
			// Client disconnected. The range loop's abandonment cancels
			// the upstream generation.
			h.logger.Debug("client disconnected during stream", "error", werr)
			return
		}
		flusher.Flush()
	}

	if !started {
		// The model produced no fragments at all; still a success.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}
