package knowledge

import "github.com/google/uuid"

// VectorDimension is the embedding dimensionality stored in the chunks
// table. gemini-embedding-001 outputs 3072 dimensions by default and is
// truncated to 768 via OutputDimensionality; the vector(768) column in
// db/migrations must match this constant.
const VectorDimension int32 = 768

// Chunk is a bounded-length span of document text, the unit of embedding
// and retrieval. Chunks are created in bulk during ingestion and are
// immutable afterwards.
type Chunk struct {
	DocumentID uuid.UUID
	Index      int
	Content    string
	// PageEstimate is a heuristic 1-based page number, non-decreasing in
	// Index. It is approximate and presented as such downstream.
	PageEstimate int
	Embedding    []float32
}

// Match is a Chunk plus its similarity to a query vector. Matches are
// ephemeral, living only within one query.
type Match struct {
	Chunk      Chunk
	Similarity float64
}

// SearchParams parameterizes a similarity search over stored chunks.
type SearchParams struct {
	Embedding  []float32
	DocumentID uuid.UUID
	// Threshold is the minimum cosine similarity for a row to match.
	Threshold float64
	// TopK truncates the result after ordering by similarity descending.
	TopK int
}
