package config

import (
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	// MongoDB configuration
	MongoURI     string
	DatabaseName string

	// Telegram configuration
	TelegramToken string

	// Producer ingestion configuration
	ProducerSecret string

	// Claude configuration
	ClaudeAPIKey string
	ClaudeModel  string

	// Admin command configuration
	AdminTokenHash string

	// Retention configuration
	SweepIntervalHours int
	ArchiveDays        int
	RetentionDays      int

	// Chat display configuration
	ListLimit int

	// Server configuration
	Port string
}

func LoadConfig() *Config {
	cfg := &Config{
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:       getEnv("MONGO_DB_NAME", "sales_bot"),
		TelegramToken:      getEnv("TELEGRAM_TOKEN", ""),
		ProducerSecret:     getEnv("PRODUCER_SECRET", ""),
		ClaudeAPIKey:       getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:        getEnv("CLAUDE_MODEL", "claude-3-5-haiku-20241022"),
		AdminTokenHash:     getEnv("ADMIN_TOKEN_HASH", ""),
		SweepIntervalHours: getEnvInt("SWEEP_INTERVAL_HOURS", 12),
		ArchiveDays:        getEnvInt("ARCHIVE_DAYS", 60),
		RetentionDays:      getEnvInt("RETENTION_DAYS", 120),
		ListLimit:          getEnvInt("LIST_LIMIT", 10),
		Port:               getEnv("PORT", "8080"),
	}

	// Validate required configuration
	if cfg.TelegramToken == "" {
		slog.Warn("TELEGRAM_TOKEN not set - outbound replies will fail")
	}
	if cfg.ProducerSecret == "" {
		slog.Warn("PRODUCER_SECRET not set - ingestion endpoints are disabled")
	}
	if cfg.ClaudeAPIKey == "" {
		slog.Info("CLAUDE_API_KEY not set - fallback replies are deterministic")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}
