package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Search    SearchConfig    `mapstructure:"search"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

// EmbeddingConfig represents the embedding service configuration.
// Endpoint and APIKey may be empty; retrieval then runs on the local
// keyword fallback only.
type EmbeddingConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	APIKey     string        `mapstructure:"api_key"`
	Deployment string        `mapstructure:"deployment"`
	APIVersion string        `mapstructure:"api_version"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RetryCount int           `mapstructure:"retry_count"`
	CacheSize  int           `mapstructure:"cache_size"`
}

// SearchConfig represents the vector search index configuration.
type SearchConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	APIKey     string        `mapstructure:"api_key"`
	IndexName  string        `mapstructure:"index_name"`
	APIVersion string        `mapstructure:"api_version"`
	TopK       int           `mapstructure:"top_k"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// GeneratorConfig represents the language model service configuration.
// All connection settings are required; generation has no fallback.
type GeneratorConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	Deployment   string        `mapstructure:"deployment"`
	APIVersion   string        `mapstructure:"api_version"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryCount   int           `mapstructure:"retry_count"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// CacheConfig represents the embedding cache configuration. RedisURL may be
// empty; caching then runs on the in-process LRU only.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// KnowledgeConfig represents the local fallback snippet store configuration.
type KnowledgeConfig struct {
	DBPath      string `mapstructure:"db_path"`
	SeedBuiltin bool   `mapstructure:"seed_builtin"`
}

// IndexerConfig represents the offline index build configuration.
type IndexerConfig struct {
	SourceDir    string `mapstructure:"source_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	BatchSize    int    `mapstructure:"batch_size"`
	MirrorLocal  bool   `mapstructure:"mirror_local"`
	EnsureIndex  bool   `mapstructure:"ensure_index"`
	EmbedRetries int    `mapstructure:"embed_retries"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RetrievalConfigured reports whether the vector retrieval backend is fully
// configured. Partial configuration counts as not configured; retrieval then
// degrades to the local fallback instead of failing per call.
func (c *Config) RetrievalConfigured() bool {
	return c.Embedding.Endpoint != "" && c.Embedding.APIKey != "" &&
		c.Search.Endpoint != "" && c.Search.APIKey != "" && c.Search.IndexName != ""
}

// MissingGeneratorSettings enumerates absent required generator settings.
func (c *Config) MissingGeneratorSettings() []string {
	var missing []string
	if c.Generator.Endpoint == "" {
		missing = append(missing, "generator.endpoint")
	}
	if c.Generator.APIKey == "" {
		missing = append(missing, "generator.api_key")
	}
	if c.Generator.Deployment == "" && c.Generator.Model == "" {
		missing = append(missing, "generator.deployment")
	}
	return missing
}
