// Package api exposes the RAG and extraction pipelines over HTTP.
//
// Endpoints:
//
//	GET  /health                 - liveness probe
//	GET  /ready                  - readiness probe (pings the vector store)
//	POST /api/documents/ingest   - chunk, embed and index a document
//	POST /api/chat               - grounded chat, streamed plain-text body
//	POST /api/extract/syllabus   - schema-validated syllabus extraction
//	POST /api/extract/quiz       - quiz generation, invalid records dropped
//	POST /api/extract/pages      - page-range lookup in a table of contents
//
// Error contract: 400 validation, 401 unauthenticated, 429 quota,
// 502 unparsable model output, 503 upstream unavailable, 500 otherwise.
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, logging, auth)
//   - health.go: health check endpoints
//   - ingest.go: document ingestion endpoint
//   - chat.go: streaming chat endpoint
//   - extract.go: structured-extraction endpoints
//   - response.go: JSON response helpers and error-status mapping
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursemind/coursemind/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout must cover a full generation stream; model calls can
	// legitimately run for tens of seconds.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger  log.Logger
	Ingest  ingestor
	Chat    chatPipeline
	Extract extractor
	Pool    *pgxpool.Pool // Optional: nil disables the readiness probe
	APIKey  string        // Optional: empty disables authentication
}

// Server is the HTTP server for the pipeline API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
	apiKey string
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Ingest == nil {
		return nil, errors.New("ingest pipeline is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat pipeline is required")
	}
	if cfg.Extract == nil {
		return nil, errors.New("extract pipeline is required")
	}

	mux := http.NewServeMux()
	NewHealthHandler(cfg.Pool, cfg.Logger).RegisterRoutes(mux)
	NewIngestHandler(cfg.Ingest, cfg.Logger).RegisterRoutes(mux)
	NewChatHandler(cfg.Chat, cfg.Logger).RegisterRoutes(mux)
	NewExtractHandler(cfg.Extract, cfg.Logger).RegisterRoutes(mux)

	return &Server{mux: mux, logger: cfg.Logger, apiKey: cfg.APIKey}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → auth → routes. Health probes
// bypass auth so orchestrators can reach them without credentials.
func (s *Server) Handler() http.Handler {
	authed := chain(s.mux, authMiddleware(s.apiKey))

	root := http.NewServeMux()
	root.Handle("GET /health", s.mux)
	root.Handle("GET /ready", s.mux)
	root.Handle("/", authed)

	return chain(root, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
