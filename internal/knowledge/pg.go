package knowledge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// db is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const insertChunkSQL = `INSERT INTO chunks (id, document_id, chunk_index, content, page_number, embedding)
	VALUES ($1, $2, $3, $4, $5, $6)`

// searchChunksSQL orders by cosine distance; similarity = 1 - distance.
// The threshold filter repeats the expression because pgvector cannot
// reference the SELECT alias in WHERE.
const searchChunksSQL = `SELECT document_id, chunk_index, content, page_number,
		1 - (embedding <=> $1) AS similarity
	FROM chunks
	WHERE document_id = $2
	  AND 1 - (embedding <=> $1) >= $3
	ORDER BY embedding <=> $1
	LIMIT $4`

const deleteChunksSQL = `DELETE FROM chunks WHERE document_id = $1`

// PG implements Querier on PostgreSQL + pgvector.
type PG struct {
	db db
}

// NewPG creates a PG querier backed by a pgx pool or transaction.
func NewPG(conn db) *PG {
	return &PG{db: conn}
}

// InsertChunk inserts one chunk row with its embedding vector.
func (p *PG) InsertChunk(ctx context.Context, chunk Chunk) error {
	vec := pgvector.NewVector(chunk.Embedding)
	_, err := p.db.Exec(ctx, insertChunkSQL,
		uuid.New(), chunk.DocumentID, chunk.Index, chunk.Content, chunk.PageEstimate, vec)
	if err != nil {
		return fmt.Errorf("insert chunk %d of document %s: %w", chunk.Index, chunk.DocumentID, err)
	}
	return nil
}

// SearchChunks runs the threshold/topK cosine similarity query.
func (p *PG) SearchChunks(ctx context.Context, params SearchParams) ([]Match, error) {
	vec := pgvector.NewVector(params.Embedding)
	rows, err := p.db.Query(ctx, searchChunksSQL,
		vec, params.DocumentID, params.Threshold, params.TopK)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(
			&m.Chunk.DocumentID,
			&m.Chunk.Index,
			&m.Chunk.Content,
			&m.Chunk.PageEstimate,
			&m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	return matches, nil
}

// DeleteChunks removes every chunk of the given document.
func (p *PG) DeleteChunks(ctx context.Context, documentID uuid.UUID) error {
	_, err := p.db.Exec(ctx, deleteChunksSQL, documentID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
