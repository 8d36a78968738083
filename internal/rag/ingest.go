package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/coursemind/coursemind/internal/chunker"
	"github.com/coursemind/coursemind/internal/knowledge"
	"github.com/coursemind/coursemind/internal/log"
)

// batchEmbedder is the slice of the embedding client ingestion needs.
type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, int)
}

// chunkWriter is the slice of the vector store ingestion needs.
type chunkWriter interface {
	InsertChunks(ctx context.Context, chunks []knowledge.Chunk) (int, error)
}

// IngestResult is the terminal state of one ingestion run. Dropped counts
// chunks whose embedding failed; their loss does not fail the run.
type IngestResult struct {
	Chunks  int `json:"chunks"`
	Stored  int `json:"stored"`
	Dropped int `json:"dropped"`
}

// Ingestor runs the document ingestion pipeline: split extracted text
// into overlapping chunks, embed them concurrently and store the
// surviving rows.
type Ingestor struct {
	splitter *chunker.Splitter
	embedder batchEmbedder
	store    chunkWriter
	logger   log.Logger
}

// NewIngestor wires the ingestion pipeline.
func NewIngestor(splitter *chunker.Splitter, embedder batchEmbedder, store chunkWriter, logger log.Logger) (*Ingestor, error) {
	if splitter == nil {
		return nil, errors.New("splitter is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Ingestor{splitter: splitter, embedder: embedder, store: store, logger: logger}, nil
}

// Ingest indexes one document's extracted text. A chunk whose embedding
// fails is dropped without failing the run; the result carries both
// counts so the caller can see partial success. Ingest returns an error
// only when the input is unusable or nothing could be stored at all.
func (ing *Ingestor) Ingest(ctx context.Context, documentID uuid.UUID, text string) (*IngestResult, error) {
	if documentID == uuid.Nil {
		return nil, errors.New("document id is required")
	}
	chunks := ing.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, errors.New("document text is empty")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, failed := ing.embedder.EmbedBatch(ctx, texts)
	if failed == len(chunks) {
		return nil, fmt.Errorf("embedding failed for all %d chunks", len(chunks))
	}

	rows := make([]knowledge.Chunk, 0, len(chunks)-failed)
	for i, c := range chunks {
		if vectors[i] == nil {
			continue
		}
		rows = append(rows, knowledge.Chunk{
			DocumentID:   documentID,
			Index:        c.Index,
			Content:      c.Content,
			PageEstimate: c.PageEstimate,
			Embedding:    vectors[i],
		})
	}

	stored, err := ing.store.InsertChunks(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	result := &IngestResult{
		Chunks:  len(chunks),
		Stored:  stored,
		Dropped: len(chunks) - stored,
	}
	if result.Dropped > 0 {
		ing.logger.Warn("document ingested with dropped chunks",
			"document_id", documentID,
			"chunks", result.Chunks,
			"stored", result.Stored,
			"dropped", result.Dropped,
		)
		return result, nil
	}
	ing.logger.Info("document ingested",
		"document_id", documentID,
		"chunks", result.Chunks,
	)
	return result, nil
}
