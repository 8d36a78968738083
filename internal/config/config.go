// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, COURSEMIND_ prefix)
//  2. Config file (~/.coursemind/config.yaml or ./config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: Model selection, temperature, embedder model
//   - Storage: PostgreSQL connection with pgvector
//   - RAG: Chunking, similarity search and context assembly policy
//   - Server: HTTP listen address and optional API key
//   - Observability: OTLP trace export to a local Datadog agent
//
// Security: Sensitive data (passwords, API keys) are never logged; the
// config directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunking indicates chunk size/overlap violate 0 <= overlap < size.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidSearchPolicy indicates the similarity threshold or topK is out of range.
	ErrInvalidSearchPolicy = errors.New("invalid search policy")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
)

const (
	// DefaultModelName is the default generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality; the chunks table schema
	// uses vector(768).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultChunkSize is the sliding-window span length in characters.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 100

	// DefaultSimilarityThreshold is the minimum cosine similarity for a
	// chunk to count as relevant during chat retrieval.
	DefaultSimilarityThreshold = 0.5

	// DefaultSearchTopK is the maximum number of chunks retrieved per query.
	DefaultSearchTopK = 5

	// DefaultContextBudget caps the assembled context length in characters.
	DefaultContextBudget = 6000
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName     string  `mapstructure:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature"`

	// RAG pipeline policy
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	SearchTopK          int     `mapstructure:"search_top_k"`
	ContextBudget       int     `mapstructure:"context_budget"`

	// Storage configuration
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// HTTP server configuration
	ServerAddr string `mapstructure:"server_addr"`
	APIKey     string `mapstructure:"api_key"` // SENSITIVE: optional bearer token, empty = open

	// Observability (see observability package)
	Datadog DatadogConfig `mapstructure:"datadog"`
}

// DatadogConfig holds OTLP trace export settings.
// Traces are sent to a local Datadog agent; the agent forwards them.
type DatadogConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AgentHost   string `mapstructure:"agent_host"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()

	viper.SetEnvPrefix("COURSEMIND")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults + env apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dir returns the coursemind configuration directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	dir := filepath.Join(home, ".coursemind")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return dir, nil
}

func setDefaults() {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("temperature", 0.7)

	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)
	viper.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	viper.SetDefault("search_top_k", DefaultSearchTopK)
	viper.SetDefault("context_budget", DefaultContextBudget)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "coursemind")
	viper.SetDefault("postgres_db_name", "coursemind")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("server_addr", ":8080")

	viper.SetDefault("datadog.enabled", false)
	viper.SetDefault("datadog.agent_host", "localhost:4318")
	viper.SetDefault("datadog.service_name", "coursemind")
	viper.SetDefault("datadog.environment", "development")
}

// PostgresURL returns a postgres:// connection URL for migrations and pgxpool.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
