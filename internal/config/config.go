// Package config provides configuration management for careerctx.
// It loads settings from environment variables with the CAREERCTX_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/scoutline/careerctx/internal/cache"
	"github.com/scoutline/careerctx/internal/storage"
)

// Config holds all configuration settings for the careerctx engine.
type Config struct {
	Storage   StorageConfig
	Cache     CacheConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Backend storage.BackendKind // Storage backend: postgres, sqlite (default: postgres)
	DSN     string              // Connection string; for sqlite, the database file path
}

// CacheConfig contains inference cache configuration.
type CacheConfig struct {
	Backend       cache.BackendKind // Cache backend: redis, memory (default: memory)
	RedisAddr     string            // Redis address (default: localhost:6379)
	RedisPassword string            // Redis password
	RedisDB       int               // Redis logical database (default: 0)
	TTL           time.Duration     // Inference result TTL (default: 1h)
}

// LLMConfig contains provider configuration for embeddings and inference.
type LLMConfig struct {
	OpenAIAPIKey      string  // OpenAI API key
	EmbeddingModel    string  // Embedding model name (default: text-embedding-3-small)
	InferenceModel    string  // Chat model name (default: gpt-4o-mini)
	BaseURL           string  // Provider base URL override
	RequestsPerSecond float64 // Embedding request rate cap; 0 disables (default: 0)
}

// RetrievalConfig tunes the content search.
type RetrievalConfig struct {
	ContentLimitPerPeriod int     // Max content results per period (default: 5)
	SimilarityThreshold   float64 // Minimum cosine similarity (default: 0.5)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the CAREERCTX_ prefix. Backend
// names outside the supported sets are rejected here rather than at first
// use.
func LoadConfig() (*Config, error) {
	storageBackend, err := storage.ParseBackendKind(getEnv("CAREERCTX_STORAGE_BACKEND", string(storage.BackendPostgres)))
	if err != nil {
		return nil, fmt.Errorf("config: CAREERCTX_STORAGE_BACKEND: %w", err)
	}
	cacheBackend, err := cache.ParseBackendKind(getEnv("CAREERCTX_CACHE_BACKEND", string(cache.BackendMemory)))
	if err != nil {
		return nil, fmt.Errorf("config: CAREERCTX_CACHE_BACKEND: %w", err)
	}
	ttl, err := getEnvDuration("CAREERCTX_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		Storage: StorageConfig{
			Backend: storageBackend,
			DSN:     getEnv("CAREERCTX_STORAGE_DSN", ""),
		},
		Cache: CacheConfig{
			Backend:       cacheBackend,
			RedisAddr:     getEnv("CAREERCTX_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("CAREERCTX_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("CAREERCTX_REDIS_DB", 0),
			TTL:           ttl,
		},
		LLM: LLMConfig{
			OpenAIAPIKey:      getEnv("CAREERCTX_OPENAI_API_KEY", ""),
			EmbeddingModel:    getEnv("CAREERCTX_EMBEDDING_MODEL", "text-embedding-3-small"),
			InferenceModel:    getEnv("CAREERCTX_INFERENCE_MODEL", "gpt-4o-mini"),
			BaseURL:           getEnv("CAREERCTX_OPENAI_BASE_URL", ""),
			RequestsPerSecond: getEnvFloat("CAREERCTX_EMBEDDING_RPS", 0),
		},
		Retrieval: RetrievalConfig{
			ContentLimitPerPeriod: getEnvInt("CAREERCTX_CONTENT_LIMIT", 5),
			SimilarityThreshold:   getEnvFloat("CAREERCTX_SIMILARITY_THRESHOLD", 0.5),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable. Unlike the other
// getters, a present-but-unparseable duration is an error: silently falling
// back on a TTL typo would quietly change cache behavior.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid duration %q: %w", key, value, err)
	}
	return parsed, nil
}
