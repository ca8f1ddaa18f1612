package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the engine.
type Config struct {
	AppEnv   string
	DBPath   string
	DBDriver string

	// RedisAddr is optional; empty selects the in-process cache.
	RedisAddr string

	JudgeEndpoint string
	JudgeAPIKey   string
	JudgeModel    string

	EvaluationTimeout time.Duration
	ResultCacheTTL    time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		DBPath:            getEnv("DB_PATH", "./data/scorecards.db"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		JudgeEndpoint:     getEnv("JUDGE_ENDPOINT", "https://api.openai.com/v1"),
		JudgeAPIKey:       getEnv("JUDGE_API_KEY", ""),
		JudgeModel:        getEnv("JUDGE_MODEL", "gpt-4o-mini"),
		EvaluationTimeout: getDurationEnv("EVALUATION_TIMEOUT_SECONDS", 60*time.Second),
		ResultCacheTTL:    getDurationEnv("RESULT_CACHE_TTL_SECONDS", 10*time.Minute),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
