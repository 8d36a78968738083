package knowledge_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursemind/coursemind/internal/knowledge"
	"github.com/coursemind/coursemind/internal/log"
	"github.com/coursemind/coursemind/internal/testutil"
)

// unitVector builds a 768-dimensional unit vector whose cosine similarity
// against the query axis (1, 0, 0, ...) equals cos. Confining components
// to the first two dimensions keeps similarities exact and makes ordering
// assertions deterministic.
func unitVector(cos float64) []float32 {
	vec := make([]float32, knowledge.VectorDimension)
	vec[0] = float32(cos)
	vec[1] = float32(math.Sqrt(1 - cos*cos))
	return vec
}

func seedChunks(t *testing.T, store *knowledge.Store, documentID uuid.UUID, similarities []float64) {
	t.Helper()

	chunks := make([]knowledge.Chunk, 0, len(similarities))
	for i, cos := range similarities {
		chunks = append(chunks, knowledge.Chunk{
			DocumentID:   documentID,
			Index:        i,
			Content:      "chunk " + string(rune('a'+i)),
			PageEstimate: 1,
			Embedding:    unitVector(cos),
		})
	}

	stored, err := store.InsertChunks(context.Background(), chunks)
	require.NoError(t, err)
	require.Equal(t, len(similarities), stored)
}

func TestPGSearch_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDB(t)
	store := knowledge.NewStore(knowledge.NewPG(testDB.Pool), log.NewNop())

	docID := uuid.New()
	otherID := uuid.New()

	// Similarities against the query axis, deliberately out of order to
	// exercise the ORDER BY rather than insertion order.
	seedChunks(t, store, docID, []float64{0.6, 0.95, 0.3, 0.8})
	seedChunks(t, store, otherID, []float64{0.99})

	query := unitVector(1.0)

	t.Run("orders by similarity descending", func(t *testing.T) {
		matches, err := store.Search(ctx, query, docID, 0.0, 10)
		require.NoError(t, err)
		require.Len(t, matches, 4)

		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
		}
		assert.InDelta(t, 0.95, matches[0].Similarity, 0.01)
		assert.Equal(t, 1, matches[0].Chunk.Index)
	})

	t.Run("filters below threshold", func(t *testing.T) {
		matches, err := store.Search(ctx, query, docID, 0.7, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		for _, m := range matches {
			assert.GreaterOrEqual(t, m.Similarity, 0.7)
		}
	})

	t.Run("truncates to topK", func(t *testing.T) {
		matches, err := store.Search(ctx, query, docID, 0.0, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.InDelta(t, 0.95, matches[0].Similarity, 0.01)
		assert.InDelta(t, 0.8, matches[1].Similarity, 0.01)
	})

	t.Run("raising the threshold only shrinks the result", func(t *testing.T) {
		loose, err := store.Search(ctx, query, docID, 0.2, 10)
		require.NoError(t, err)
		strict, err := store.Search(ctx, query, docID, 0.7, 10)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(strict), len(loose))

		looseIndexes := make(map[int]bool, len(loose))
		for _, m := range loose {
			looseIndexes[m.Chunk.Index] = true
		}
		for _, m := range strict {
			assert.True(t, looseIndexes[m.Chunk.Index],
				"strict result %d missing from loose result", m.Chunk.Index)
		}
	})

	t.Run("scopes to the requested document", func(t *testing.T) {
		matches, err := store.Search(ctx, query, otherID, 0.0, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, otherID, matches[0].Chunk.DocumentID)
	})

	t.Run("unknown document yields empty result", func(t *testing.T) {
		matches, err := store.Search(ctx, query, uuid.New(), 0.0, 10)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestPGDelete_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDB(t)
	store := knowledge.NewStore(knowledge.NewPG(testDB.Pool), log.NewNop())

	docID := uuid.New()
	kept := uuid.New()
	seedChunks(t, store, docID, []float64{0.9, 0.5})
	seedChunks(t, store, kept, []float64{0.9})

	require.NoError(t, store.Delete(ctx, docID))

	query := unitVector(1.0)
	matches, err := store.Search(ctx, query, docID, 0.0, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.Search(ctx, query, kept, 0.0, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1, "other documents must be untouched")
}

func TestPGInsert_DuplicateIndex_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDB(t)
	store := knowledge.NewStore(knowledge.NewPG(testDB.Pool), log.NewNop())

	docID := uuid.New()
	seedChunks(t, store, docID, []float64{0.9})

	// A second row with the same (document_id, chunk_index) violates the
	// unique constraint. The batch has no other rows, so InsertChunks
	// reports total failure.
	dup := knowledge.Chunk{
		DocumentID:   docID,
		Index:        0,
		Content:      "duplicate",
		PageEstimate: 1,
		Embedding:    unitVector(0.4),
	}
	stored, err := store.InsertChunks(ctx, []knowledge.Chunk{dup})
	require.Error(t, err)
	assert.Zero(t, stored)
}
