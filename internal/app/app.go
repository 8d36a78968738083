// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the pipeline: Genkit and the
// Gemini plugin, the pgvector-backed chunk store, the generation client
// with its resilience stack, and the ingestion/chat/extraction
// orchestrators on top.
package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursemind/coursemind/internal/config"
	"github.com/coursemind/coursemind/internal/extract"
	"github.com/coursemind/coursemind/internal/knowledge"
	"github.com/coursemind/coursemind/internal/llm"
	"github.com/coursemind/coursemind/internal/log"
	"github.com/coursemind/coursemind/internal/rag"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	DBPool    *pgxpool.Pool
	Store     *knowledge.Store
	Embedder  *knowledge.Embedder
	LLM       *llm.Client
	Ingestor  *rag.Ingestor
	Chat      *rag.Chat
	Extractor *extract.Extractor

	// Cleanup hooks in reverse initialization order.
	cleanups []func()
}

// Close gracefully releases all resources.
func (a *App) Close() {
	a.Logger.Info("shutting down application")
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// onClose registers a cleanup hook.
func (a *App) onClose(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

// shutdownTimeout bounds each cleanup hook that needs a context.
const shutdownTimeout = 5 * time.Second

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}
