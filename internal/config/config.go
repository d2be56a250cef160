package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Claude enrichment. An empty API key disables enrichment.
	AnthropicAPIKey string
	AnthropicModel  string
	EnrichBatchSize int

	// Parse pool
	ParseWorkers int

	// Upload limits
	MaxUploadBytes int64

	// Optional rule catalog overrides (YAML path)
	RulesPath string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8085"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		EnrichBatchSize: envInt("ENRICH_BATCH_SIZE", 20),

		ParseWorkers: envInt("PARSE_WORKERS", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		RulesPath: os.Getenv("RULES_PATH"),
	}

	if cfg.EnrichBatchSize <= 0 {
		cfg.EnrichBatchSize = 20
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
