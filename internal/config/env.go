// Package config provides application configuration for the indexing
// pipeline, loaded from defaults, a .env file, and environment variables,
// in that increasing order of precedence (CLI flags, applied by callers
// in cmd/devagent, override all of them).
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-derived configuration. Field names map
// to environment variables with the DEVAGENT_ prefix (e.g. DataDir ->
// DEVAGENT_DATA_DIR). Nested structs use an underscore delimiter.
type EnvConfig struct {
	// DataDir is where the content-addressed per-repository indexes live.
	// Env: DEVAGENT_DATA_DIR (default: ~/.dev-agent/indexes)
	DataDir string `envconfig:"DATA_DIR"`

	// LogLevel is the log verbosity: DEBUG, INFO, WARN, ERROR.
	// Env: DEVAGENT_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format: pretty or json.
	// Env: DEVAGENT_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Embedding configures the embedding backend.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`

	// Indexing configures the indexing pipeline's batching behavior.
	Indexing IndexingEnv `envconfig:"INDEXING"`

	// Git configures the subprocess git extractor.
	Git GitEnv `envconfig:"GIT"`

	// Map configures codebase-map generation defaults.
	Map MapEnv `envconfig:"MAP"`
}

// EmbeddingEnv holds environment configuration for the embedding backend.
type EmbeddingEnv struct {
	// BaseURL points at an OpenAI-compatible embeddings endpoint. When
	// empty, the local hugot-backed model is used instead.
	// Env: DEVAGENT_EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model names the embedding model (local model file or remote model id).
	// Env: DEVAGENT_EMBEDDING_MODEL (default: all-MiniLM-L6-v2)
	Model string `envconfig:"MODEL" default:"all-MiniLM-L6-v2"`

	// APIKey authenticates against a remote embedding endpoint, if set.
	// Env: DEVAGENT_EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// BatchSize is the number of texts embedded per backend call.
	// Env: DEVAGENT_EMBEDDING_BATCH_SIZE (default: 32)
	BatchSize int `envconfig:"BATCH_SIZE" default:"32"`

	// TimeoutSeconds is parsed from the environment and exposed through
	// Timeout. It is not copied into AppConfig, and no embedding backend
	// applies it to its requests.
	// Env: DEVAGENT_EMBEDDING_TIMEOUT_SECONDS (default: 30)
	TimeoutSeconds float64 `envconfig:"TIMEOUT_SECONDS" default:"30"`

	// CacheDir is where downloaded/extracted local model files are cached.
	// Env: DEVAGENT_EMBEDDING_CACHE_DIR
	CacheDir string `envconfig:"CACHE_DIR"`
}

// Timeout returns the embedding request timeout as a time.Duration.
func (e EmbeddingEnv) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds * float64(time.Second))
}

// IndexingEnv holds environment configuration for RepositoryIndexer and
// GitIndexer batching.
type IndexingEnv struct {
	// BatchSize is the number of documents embedded/stored per batch.
	// Env: DEVAGENT_INDEXING_BATCH_SIZE (default: 32)
	BatchSize int `envconfig:"BATCH_SIZE" default:"32"`
}

// GitEnv holds environment configuration for the git log subprocess
// extractor.
type GitEnv struct {
	// Executable is the git binary to invoke.
	// Env: DEVAGENT_GIT_EXECUTABLE (default: git)
	Executable string `envconfig:"EXECUTABLE" default:"git"`

	// MaxBufferBytes is carried into AppConfig.GitMaxBufferBytes. The git
	// extractor does not receive it: git output is read into an unbounded
	// buffer and no size cap is enforced.
	// Env: DEVAGENT_GIT_MAX_BUFFER_BYTES (default: 52428800, 50 MiB)
	MaxBufferBytes int64 `envconfig:"MAX_BUFFER_BYTES" default:"52428800"`
}

// MapEnv holds environment configuration for MapBuilder pruning defaults.
type MapEnv struct {
	// Depth is the directory depth at which fixed-mode pruning clears
	// children.
	// Env: DEVAGENT_MAP_DEPTH (default: 2)
	Depth int `envconfig:"DEPTH" default:"2"`

	// SmartDepthThreshold is the minimum componentCount a directory below
	// the always-kept first two levels must have to avoid collapsing in
	// smart mode.
	// Env: DEVAGENT_MAP_SMART_DEPTH_THRESHOLD (default: 10)
	SmartDepthThreshold int `envconfig:"SMART_DEPTH_THRESHOLD" default:"10"`

	// MaxExportsPerDir caps the exports listed for a single directory.
	// Env: DEVAGENT_MAP_MAX_EXPORTS_PER_DIR (default: 5)
	MaxExportsPerDir int `envconfig:"MAX_EXPORTS_PER_DIR" default:"5"`

	// MaxHotPaths caps the number of ranked hot paths returned.
	// Env: DEVAGENT_MAP_MAX_HOT_PATHS (default: 5)
	MaxHotPaths int `envconfig:"MAX_HOT_PATHS" default:"5"`
}

// LoadFromEnv loads configuration from environment variables prefixed
// with DEVAGENT.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("DEVAGENT", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}
