package config

import (
	"os"
	"path/filepath"
)

// LogFormat selects the logging package's output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// defaultDataDirName is appended to the user's home directory when no
// data directory is configured.
const defaultDataDirName = ".dev-agent/indexes"

// AppConfig is the fully resolved configuration the pipeline's
// constructors consume. Construct one with NewAppConfig or
// NewAppConfigWithOptions; mutate it with the With* option functions.
type AppConfig struct {
	dataDir   string
	logLevel  string
	logFormat LogFormat

	embeddingBaseURL  string
	embeddingModel    string
	embeddingAPIKey   string
	embeddingBatch    int
	embeddingCacheDir string

	indexingBatchSize int

	gitExecutable     string
	gitMaxBufferBytes int64

	mapDepth               int
	mapSmartDepthThreshold int
	mapMaxExportsPerDir    int
	mapMaxHotPaths         int
}

// AppConfigOption mutates an AppConfig in place; used by NewAppConfigWithOptions.
type AppConfigOption func(*AppConfig)

// NewAppConfig returns an AppConfig populated with the pipeline's defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		dataDir:                defaultDataDir(),
		logLevel:               "INFO",
		logFormat:              LogFormatPretty,
		embeddingModel:         "all-MiniLM-L6-v2",
		embeddingBatch:         32,
		indexingBatchSize:      32,
		gitExecutable:          "git",
		gitMaxBufferBytes:      50 * 1024 * 1024,
		mapDepth:               2,
		mapSmartDepthThreshold: 10,
		mapMaxExportsPerDir:    5,
		mapMaxHotPaths:         5,
	}
}

// NewAppConfigWithOptions returns a default AppConfig with opts applied
// in order.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	cfg := NewAppConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}

// Accessors.

func (c AppConfig) DataDir() string             { return c.dataDir }
func (c AppConfig) LogLevel() string            { return c.logLevel }
func (c AppConfig) LogFormat() LogFormat        { return c.logFormat }
func (c AppConfig) EmbeddingBaseURL() string     { return c.embeddingBaseURL }
func (c AppConfig) EmbeddingModel() string       { return c.embeddingModel }
func (c AppConfig) EmbeddingAPIKey() string      { return c.embeddingAPIKey }
func (c AppConfig) EmbeddingBatchSize() int      { return c.embeddingBatch }
func (c AppConfig) EmbeddingCacheDir() string    { return c.embeddingCacheDir }
func (c AppConfig) IndexingBatchSize() int       { return c.indexingBatchSize }
func (c AppConfig) GitExecutable() string        { return c.gitExecutable }
func (c AppConfig) GitMaxBufferBytes() int64     { return c.gitMaxBufferBytes }
func (c AppConfig) MapDepth() int                { return c.mapDepth }
func (c AppConfig) MapSmartDepthThreshold() int  { return c.mapSmartDepthThreshold }
func (c AppConfig) MapMaxExportsPerDir() int      { return c.mapMaxExportsPerDir }
func (c AppConfig) MapMaxHotPaths() int          { return c.mapMaxHotPaths }

// Options.

func WithDataDir(v string) AppConfigOption { return func(c *AppConfig) { c.dataDir = v } }
func WithLogLevel(v string) AppConfigOption { return func(c *AppConfig) { c.logLevel = v } }
func WithLogFormat(v LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = v }
}
func WithEmbeddingBaseURL(v string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingBaseURL = v }
}
func WithEmbeddingModel(v string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingModel = v }
}
func WithEmbeddingAPIKey(v string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingAPIKey = v }
}
func WithEmbeddingBatchSize(v int) AppConfigOption {
	return func(c *AppConfig) { c.embeddingBatch = v }
}
func WithEmbeddingCacheDir(v string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingCacheDir = v }
}
func WithIndexingBatchSize(v int) AppConfigOption {
	return func(c *AppConfig) { c.indexingBatchSize = v }
}
func WithGitExecutable(v string) AppConfigOption {
	return func(c *AppConfig) { c.gitExecutable = v }
}
func WithGitMaxBufferBytes(v int64) AppConfigOption {
	return func(c *AppConfig) { c.gitMaxBufferBytes = v }
}
func WithMapDepth(v int) AppConfigOption { return func(c *AppConfig) { c.mapDepth = v } }
func WithMapSmartDepthThreshold(v int) AppConfigOption {
	return func(c *AppConfig) { c.mapSmartDepthThreshold = v }
}
func WithMapMaxExportsPerDir(v int) AppConfigOption {
	return func(c *AppConfig) { c.mapMaxExportsPerDir = v }
}
func WithMapMaxHotPaths(v int) AppConfigOption {
	return func(c *AppConfig) { c.mapMaxHotPaths = v }
}

// ToAppConfig converts environment-derived configuration into an
// AppConfig, leaving the pipeline defaults in place for anything left
// unset in the environment.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.Embedding.BaseURL != "" {
		cfg = applyOption(cfg, WithEmbeddingBaseURL(e.Embedding.BaseURL))
	}
	if e.Embedding.Model != "" {
		cfg = applyOption(cfg, WithEmbeddingModel(e.Embedding.Model))
	}
	if e.Embedding.APIKey != "" {
		cfg = applyOption(cfg, WithEmbeddingAPIKey(e.Embedding.APIKey))
	}
	if e.Embedding.BatchSize > 0 {
		cfg = applyOption(cfg, WithEmbeddingBatchSize(e.Embedding.BatchSize))
	}
	if e.Embedding.CacheDir != "" {
		cfg = applyOption(cfg, WithEmbeddingCacheDir(e.Embedding.CacheDir))
	}
	if e.Indexing.BatchSize > 0 {
		cfg = applyOption(cfg, WithIndexingBatchSize(e.Indexing.BatchSize))
	}
	if e.Git.Executable != "" {
		cfg = applyOption(cfg, WithGitExecutable(e.Git.Executable))
	}
	if e.Git.MaxBufferBytes > 0 {
		cfg = applyOption(cfg, WithGitMaxBufferBytes(e.Git.MaxBufferBytes))
	}
	if e.Map.Depth > 0 {
		cfg = applyOption(cfg, WithMapDepth(e.Map.Depth))
	}
	if e.Map.SmartDepthThreshold > 0 {
		cfg = applyOption(cfg, WithMapSmartDepthThreshold(e.Map.SmartDepthThreshold))
	}
	if e.Map.MaxExportsPerDir > 0 {
		cfg = applyOption(cfg, WithMapMaxExportsPerDir(e.Map.MaxExportsPerDir))
	}
	if e.Map.MaxHotPaths > 0 {
		cfg = applyOption(cfg, WithMapMaxHotPaths(e.Map.MaxHotPaths))
	}

	return cfg
}

func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

func parseLogFormat(s string) LogFormat {
	switch s {
	case "json", "JSON":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
