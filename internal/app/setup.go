package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/coursemind/coursemind/db"
	"github.com/coursemind/coursemind/internal/chunker"
	"github.com/coursemind/coursemind/internal/config"
	"github.com/coursemind/coursemind/internal/extract"
	"github.com/coursemind/coursemind/internal/knowledge"
	"github.com/coursemind/coursemind/internal/llm"
	"github.com/coursemind/coursemind/internal/log"
	"github.com/coursemind/coursemind/internal/observability"
	"github.com/coursemind/coursemind/internal/rag"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = log.New(log.Config{})
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	// Tracing first, so Genkit's TracerProvider is ready before Init.
	if cfg.Datadog.Enabled {
		shutdown, err := observability.SetupDatadog(ctx, observability.Config{
			AgentHost:   cfg.Datadog.AgentHost,
			ServiceName: cfg.Datadog.ServiceName,
			Environment: cfg.Datadog.Environment,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.onClose(func() {
			sctx, cancel := shutdownContext()
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("shutting down tracer provider", "error", err)
			}
		})
	}

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	a.onClose(pool.Close)

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = knowledge.NewEmbedder(embedder, logger)
	a.Store = knowledge.NewStore(knowledge.NewPG(pool), logger)

	client, err := llm.NewClient(llm.Config{
		Genkit:      g,
		Logger:      logger,
		ModelName:   "googleai/" + cfg.ModelName,
		RateLimiter: rate.NewLimiter(rate.Limit(2), 4),
	})
	if err != nil {
		return nil, fmt.Errorf("creating generation client: %w", err)
	}
	a.LLM = client

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("creating chunker: %w", err)
	}

	a.Ingestor, err = rag.NewIngestor(splitter, a.Embedder, a.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("creating ingestor: %w", err)
	}

	a.Chat, err = rag.NewChat(a.Embedder, a.Store, client, rag.SearchPolicy{
		Threshold:     cfg.SimilarityThreshold,
		TopK:          cfg.SearchTopK,
		ContextBudget: cfg.ContextBudget,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating chat pipeline: %w", err)
	}

	a.Extractor, err = extract.NewExtractor(client, logger)
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	return a, nil
}

// provideGenkit initializes Genkit with the Gemini plugin. The plugin
// reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection
// pool with sensible connection management defaults.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
