package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. Every collaborator receives its
// settings through this value at construction time; nothing reads the process
// environment after startup.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	APIKey      string

	// Generation collaborator (OpenAI-compatible chat completions).
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Pass-through proxy for the upstream OpenAI Responses API.
	OpenAIProxyToken   string
	OpenAIProxyTimeout time.Duration

	// Embedding collaborator (Voyage AI).
	VoyageAPIKey  string
	VoyageBaseURL string
	VoyageModel   string
	VoyageTimeout time.Duration

	// Guideline vector store.
	QdrantURL    string
	QdrantAPIKey string

	// Advice cache. Empty address falls back to the in-process cache.
	RedisAddr     string
	RedisPassword string

	// Air quality readings store. A postgres:// DSN selects the postgres
	// driver, anything else is treated as a sqlite path.
	AirQualityDSN string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		APIKey:      getEnv("API_KEY", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-5-nano"),
		OpenAITimeout: getDurationEnv("OPENAI_TIMEOUT_SECONDS", 60*time.Second),

		OpenAIProxyToken:   getEnv("OPENAI_PROXY_TOKEN", ""),
		OpenAIProxyTimeout: getDurationEnv("OPENAI_PROXY_TIMEOUT_SECONDS", 180*time.Second),

		VoyageAPIKey:  getEnv("VOYAGE_API_KEY", ""),
		VoyageBaseURL: getEnv("VOYAGE_BASE_URL", "https://api.voyageai.com/v1"),
		VoyageModel:   getEnv("VOYAGE_MODEL", "voyage-3-large"),
		VoyageTimeout: getDurationEnv("VOYAGE_TIMEOUT_SECONDS", 30*time.Second),

		QdrantURL:    getEnv("QDRANT_URL", "localhost:6334"),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AirQualityDSN: getEnv("AIR_QUALITY_DSN", "epilog.db"),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a duration given as whole seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
