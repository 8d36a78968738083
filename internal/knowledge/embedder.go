package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// EmbedTimeout bounds a single embedding call.
const EmbedTimeout = 15 * time.Second

// Embedder wraps the embedding-model service. It returns fixed-length
// vectors (VectorDimension) and surfaces raw per-call errors; retries are
// the caller's responsibility.
type Embedder struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewEmbedder creates an Embedder. A nil logger falls back to slog.Default().
func NewEmbedder(embedder ai.Embedder, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{embedder: embedder, logger: logger}
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := VectorDimension

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	resp, err := e.embedder.Embed(embedCtx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Embedding, nil
}

// EmbedBatch embeds each text concurrently with per-item failure isolation:
// one text failing to embed never aborts the rest. The result slice is
// index-aligned with texts; a nil slot marks a failed item. The second
// return value is the failed count.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, int) {
	vectors := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for i, text := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			vec, err := e.Embed(ctx, text)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				e.logger.Warn("embedding failed, item dropped",
					"item_index", i,
					"text_length", len(text),
					"error", err)
				return
			}
			vectors[i] = vec
		}()
	}
	wg.Wait()

	return vectors, failed
}
