package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/staprolab/interpret-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/interpret-server/")

	// Environment variables override file values, e.g. LABAI_GENERATOR_API_KEY
	viper.SetEnvPrefix("LABAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults plus env vars are a valid setup
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "120s")
	viper.SetDefault("server.rate_limit", 20)
	viper.SetDefault("server.rate_burst", 40)

	// Embedding service defaults
	viper.SetDefault("embedding.api_version", "2023-05-15")
	viper.SetDefault("embedding.model", "text-embedding-ada-002")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.timeout", "30s")
	viper.SetDefault("embedding.rate_limit", 10)
	viper.SetDefault("embedding.retry_count", 3)
	viper.SetDefault("embedding.cache_size", 1024)

	// Search index defaults
	viper.SetDefault("search.index_name", "lab-knowledge-index")
	viper.SetDefault("search.api_version", "2023-11-01")
	viper.SetDefault("search.top_k", 3)
	viper.SetDefault("search.timeout", "30s")

	// Generator defaults
	viper.SetDefault("generator.api_version", "2024-02-01")
	viper.SetDefault("generator.temperature", 0.1)
	viper.SetDefault("generator.max_tokens", 2000)
	viper.SetDefault("generator.timeout", "90s")
	viper.SetDefault("generator.retry_count", 1)
	viper.SetDefault("generator.retry_backoff", "30s")

	// Cache defaults; redis_url intentionally has no default, Redis is optional
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")

	// Local knowledge store defaults
	viper.SetDefault("knowledge.db_path", "./data/knowledge.db")
	viper.SetDefault("knowledge.seed_builtin", true)

	// Indexer defaults
	viper.SetDefault("indexer.source_dir", "./documents")
	viper.SetDefault("indexer.chunk_size", 256)
	viper.SetDefault("indexer.batch_size", 50)
	viper.SetDefault("indexer.mirror_local", true)
	viper.SetDefault("indexer.ensure_index", true)
	viper.SetDefault("indexer.embed_retries", 1)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration. Generator settings are required and
// reported as a single enumerated error; retrieval settings may be absent
// because retrieval degrades to the local fallback.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if missing := config.MissingGeneratorSettings(); len(missing) > 0 {
		return domain.NewConfigurationMissingError(missing)
	}

	if config.Knowledge.DBPath == "" {
		return fmt.Errorf("knowledge db path is required")
	}

	if config.Search.TopK <= 0 {
		return fmt.Errorf("invalid search top_k: %d", config.Search.TopK)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// ValidateIndexer validates the settings the offline index build needs.
// The indexer has no fallback path; it requires the full vector stack.
func (m *Manager) ValidateIndexer() error {
	config := m.config

	var missing []string
	if config.Embedding.Endpoint == "" {
		missing = append(missing, "embedding.endpoint")
	}
	if config.Embedding.APIKey == "" {
		missing = append(missing, "embedding.api_key")
	}
	if config.Search.Endpoint == "" {
		missing = append(missing, "search.endpoint")
	}
	if config.Search.APIKey == "" {
		missing = append(missing, "search.api_key")
	}
	if config.Search.IndexName == "" {
		missing = append(missing, "search.index_name")
	}
	if len(missing) > 0 {
		return domain.NewConfigurationMissingError(missing)
	}

	if config.Indexer.SourceDir == "" {
		return fmt.Errorf("indexer source dir is required")
	}
	if config.Indexer.ChunkSize <= 0 {
		return fmt.Errorf("invalid indexer chunk size: %d", config.Indexer.ChunkSize)
	}

	return nil
}

// IsProduction returns true if running in production mode
func IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}
