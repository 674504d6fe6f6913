package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the API service
type Config struct {
	// Server
	Port        string
	Environment string

	// Model endpoint
	GroqAPIURL string

	// Cache stores
	SQLitePath string
	CacheDir   string
	RedisURL   string // optional; preferred durable store when set

	// Eventbus
	NATSURL string // optional timeline mirror

	// Key bridge
	KeyFile   string
	KeySecret string

	// Pipeline
	MaxRepairAttempts int
	SettleDelayMs     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("GO_ENV", "development"),
		GroqAPIURL:        getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		SQLitePath:        getEnv("SQLITE_PATH", "morphic.db"),
		CacheDir:          getEnv("CACHE_DIR", ".morphic-cache"),
		RedisURL:          os.Getenv("REDIS_URL"),
		NATSURL:           os.Getenv("NATS_URL"),
		KeyFile:           getEnv("KEY_FILE", ".morphic-key"),
		KeySecret:         getEnv("KEY_SECRET", "dev-secret-change-in-production"),
		MaxRepairAttempts: getEnvInt("MAX_REPAIR_ATTEMPTS", 2),
		SettleDelayMs:     getEnvInt("SETTLE_DELAY_MS", 50),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
