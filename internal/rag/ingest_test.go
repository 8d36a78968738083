package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursemind/coursemind/internal/chunker"
	"github.com/coursemind/coursemind/internal/knowledge"
	"github.com/coursemind/coursemind/internal/log"
)

type stubEmbedder struct {
	failIndexes map[int]bool
	calls       int
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, int) {
	s.calls++
	vectors := make([][]float32, len(texts))
	failed := 0
	for i := range texts {
		if s.failIndexes[i] {
			failed++
			continue
		}
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, failed
}

type stubWriter struct {
	inserted []knowledge.Chunk
	err      error
}

func (s *stubWriter) InsertChunks(_ context.Context, chunks []knowledge.Chunk) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.inserted = append(s.inserted, chunks...)
	return len(chunks), nil
}

func newTestIngestor(t *testing.T, embedder batchEmbedder, store chunkWriter) *Ingestor {
	t.Helper()
	ing, err := NewIngestor(chunker.NewDefault(), embedder, store, log.NewNop())
	require.NoError(t, err)
	return ing
}

func TestIngestSplitsEmbedsAndStores(t *testing.T) {
	embedder := &stubEmbedder{}
	store := &stubWriter{}
	ing := newTestIngestor(t, embedder, store)

	// 1200 characters with default size 500 / overlap 100 walks the
	// window in steps of 400: three chunks.
	text := strings.Repeat("x", 1200)
	docID := uuid.New()

	result, err := ing.Ingest(context.Background(), docID, text)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 3, result.Stored)
	assert.Equal(t, 0, result.Dropped)

	require.Len(t, store.inserted, 3)
	for i, row := range store.inserted {
		assert.Equal(t, docID, row.DocumentID)
		assert.Equal(t, i, row.Index)
		assert.LessOrEqual(t, len(row.Content), chunker.DefaultSize)
		assert.NotNil(t, row.Embedding)
	}
	// Page estimates never go backwards.
	for i := 1; i < len(store.inserted); i++ {
		assert.GreaterOrEqual(t, store.inserted[i].PageEstimate, store.inserted[i-1].PageEstimate)
	}
}

func TestIngestPartialEmbeddingFailure(t *testing.T) {
	embedder := &stubEmbedder{failIndexes: map[int]bool{1: true}}
	store := &stubWriter{}
	ing := newTestIngestor(t, embedder, store)

	result, err := ing.Ingest(context.Background(), uuid.New(), strings.Repeat("x", 1200))
	require.NoError(t, err, "a dropped chunk is a count, not a failure")
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, 1, result.Dropped)

	require.Len(t, store.inserted, 2)
	assert.Equal(t, 0, store.inserted[0].Index)
	assert.Equal(t, 2, store.inserted[1].Index)
}

func TestIngestAllEmbeddingsFail(t *testing.T) {
	embedder := &stubEmbedder{failIndexes: map[int]bool{0: true, 1: true, 2: true}}
	ing := newTestIngestor(t, embedder, &stubWriter{})

	_, err := ing.Ingest(context.Background(), uuid.New(), strings.Repeat("x", 1200))
	assert.Error(t, err)
}

func TestIngestStoreFailure(t *testing.T) {
	store := &stubWriter{err: errors.New("connection refused")}
	ing := newTestIngestor(t, &stubEmbedder{}, store)

	_, err := ing.Ingest(context.Background(), uuid.New(), "some text")
	assert.Error(t, err)
}

func TestIngestRejectsEmptyInput(t *testing.T) {
	ing := newTestIngestor(t, &stubEmbedder{}, &stubWriter{})

	_, err := ing.Ingest(context.Background(), uuid.Nil, "text")
	assert.Error(t, err, "nil document id")

	_, err = ing.Ingest(context.Background(), uuid.New(), "")
	assert.Error(t, err, "empty text")
}
