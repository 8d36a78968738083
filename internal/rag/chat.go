package rag

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/coursemind/coursemind/internal/knowledge"
	"github.com/coursemind/coursemind/internal/llm"
	"github.com/coursemind/coursemind/internal/log"
)

// retrievalTimeout bounds the embed+search round trip per chat request.
// Retrieval is an enhancement; a slow vector store must not stall the
// user's question.
const retrievalTimeout = 5 * time.Second

const chatSystem = `You are a study assistant for an education platform.
Answer the student's question using the course material below. Page
references in the material are estimates. When the material says no
relevant passage was found, answer from general knowledge and say that
the course material does not cover the question.

Course material:
%s`

// queryEmbedder is the slice of the embedding client chat needs.
type queryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// chunkSearcher is the slice of the vector store chat needs.
type chunkSearcher interface {
	Search(ctx context.Context, embedding []float32, documentID uuid.UUID, threshold float64, topK int) ([]knowledge.Match, error)
}

// chatStreamer is the slice of the generation client chat needs.
type chatStreamer interface {
	StreamChat(ctx context.Context, req llm.ChatRequest) iter.Seq2[string, error]
}

// SearchPolicy tunes retrieval for grounded chat.
type SearchPolicy struct {
	Threshold     float64
	TopK          int
	ContextBudget int
}

// DefaultSearchPolicy returns the retrieval policy used by the chat
// pipeline.
func DefaultSearchPolicy() SearchPolicy {
	return SearchPolicy{
		Threshold:     0.5,
		TopK:          5,
		ContextBudget: DefaultContextBudget,
	}
}

// ChatRequest is one grounded chat invocation. The caller supplies the
// full history every time; the pipeline holds no state across turns.
type ChatRequest struct {
	History []llm.Turn
	Message string
	Images  []string
	// DocumentScopeID selects the document to ground against. Nil skips
	// retrieval entirely, which is distinct from retrieval returning no
	// matches.
	DocumentScopeID *uuid.UUID
}

// Chat orchestrates grounded streaming chat: optionally embed the
// question, search the document's chunks, assemble retrieved passages
// into the system instruction and stream the model's answer.
type Chat struct {
	embedder queryEmbedder
	searcher chunkSearcher
	streamer chatStreamer
	policy   SearchPolicy
	logger   log.Logger
}

// NewChat wires the grounded chat orchestrator. A zero policy takes the
// default threshold/topK.
func NewChat(embedder queryEmbedder, searcher chunkSearcher, streamer chatStreamer, policy SearchPolicy, logger log.Logger) (*Chat, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if streamer == nil {
		return nil, errors.New("streamer is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if policy.TopK <= 0 {
		policy = DefaultSearchPolicy()
	}
	return &Chat{
		embedder: embedder,
		searcher: searcher,
		streamer: streamer,
		policy:   policy,
		logger:   logger,
	}, nil
}

// Stream answers the request as a lazy fragment sequence. Retrieval
// failures degrade gracefully: the model is told explicitly that no
// passage was found rather than the whole request failing. Abandoning
// the sequence cancels the upstream generation.
func (c *Chat) Stream(ctx context.Context, req ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if req.Message == "" {
			yield("", errors.New("message is required"))
			return
		}

		grounding := c.retrieve(ctx, req)

		stream := c.streamer.StreamChat(ctx, llm.ChatRequest{
			System:  fmt.Sprintf(chatSystem, grounding),
			History: req.History,
			Message: req.Message,
			Images:  req.Images,
		})
		for fragment, err := range stream {
			if !yield(fragment, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// retrieve runs the optional retrieval leg and always produces a usable
// grounding string.
func (c *Chat) retrieve(ctx context.Context, req ChatRequest) string {
	if req.DocumentScopeID == nil {
		return NoContextSentinel
	}

	searchCtx, cancel := context.WithTimeout(ctx, retrievalTimeout)
	defer cancel()

	embedding, err := c.embedder.Embed(searchCtx, req.Message)
	if err != nil {
		c.logger.Warn("query embedding failed, answering without grounding",
			"document_id", *req.DocumentScopeID,
			"error", err,
		)
		return NoContextSentinel
	}

	matches, err := c.searcher.Search(searchCtx, embedding, *req.DocumentScopeID, c.policy.Threshold, c.policy.TopK)
	if err != nil {
		c.logger.Warn("chunk search failed, answering without grounding",
			"document_id", *req.DocumentScopeID,
			"error", err,
		)
		return NoContextSentinel
	}

	c.logger.Debug("retrieval complete",
		"document_id", *req.DocumentScopeID,
		"matches", len(matches),
	)
	return AssembleContext(matches, c.policy.ContextBudget)
}
