package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Querier defines the database operations Store needs. Following Go best
// practices the interface is defined by the consumer, not the provider
// (similar to io.Reader, http.RoundTripper), which keeps Store testable
// against a mock and independent of the concrete pgx implementation.
type Querier interface {
	// InsertChunk inserts a single chunk row.
	InsertChunk(ctx context.Context, chunk Chunk) error

	// SearchChunks performs threshold/topK similarity search scoped to a
	// document, returning rows ordered by similarity descending.
	SearchChunks(ctx context.Context, params SearchParams) ([]Match, error)

	// DeleteChunks removes all chunks belonging to a document.
	DeleteChunks(ctx context.Context, documentID uuid.UUID) error
}

// searchTimeout bounds a single vector search so a slow query cannot block
// the chat request it serves.
const searchTimeout = 10 * time.Second

// Store manages document chunks with vector search capabilities.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(querier Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: querier, logger: logger}
}

// InsertChunks inserts embedded chunks row by row. Atomicity per batch is
// not guaranteed: a row that fails to insert is logged and skipped, and the
// returned count reflects the rows actually stored. Partial success is an
// accepted outcome, matching the partial embedding failures the caller
// already tolerated upstream. An error is returned only when every row of
// a non-empty batch failed, which indicates the store itself is down.
func (s *Store) InsertChunks(ctx context.Context, chunks []Chunk) (int, error) {
	stored := 0
	var lastErr error

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			s.logger.Warn("skipping chunk without embedding",
				"document_id", chunk.DocumentID, "chunk_index", chunk.Index)
			continue
		}
		if err := s.queries.InsertChunk(ctx, chunk); err != nil {
			lastErr = err
			s.logger.Warn("failed to insert chunk",
				"document_id", chunk.DocumentID,
				"chunk_index", chunk.Index,
				"error", err)
			continue
		}
		stored++
	}

	if stored == 0 && lastErr != nil {
		return 0, fmt.Errorf("inserting chunks: %w", lastErr)
	}

	s.logger.Debug("inserted chunks", "stored", stored, "requested", len(chunks))
	return stored, nil
}

// Search performs threshold/topK similarity search scoped to a document.
// Matches come back ordered by similarity descending, filtered to
// similarity >= threshold and truncated to topK. An empty result is a
// valid outcome, not an error; callers distinguish it from "search not
// attempted" by not calling Search at all in that case.
func (s *Store) Search(ctx context.Context, embedding []float32, documentID uuid.UUID, threshold float64, topK int) ([]Match, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding must not be empty")
	}
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("document scope is required for search")
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v must be in [0, 1]", threshold)
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK %d must be positive", topK)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	matches, err := s.queries.SearchChunks(queryCtx, SearchParams{
		Embedding:  embedding,
		DocumentID: documentID,
		Threshold:  threshold,
		TopK:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	s.logger.Debug("similarity search",
		"document_id", documentID,
		"matches", len(matches),
		"threshold", threshold,
		"top_k", topK)

	return matches, nil
}

// Delete removes all chunks of a document. Used when the parent document
// is deleted by its external owner.
func (s *Store) Delete(ctx context.Context, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return fmt.Errorf("document id is required")
	}
	if err := s.queries.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("deleting chunks for document %s: %w", documentID, err)
	}
	s.logger.Debug("deleted document chunks", "document_id", documentID)
	return nil
}
