package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// GitHub
	GitHubToken string

	// Assistant
	AnthropicAPIKey string
	AssistantModel  string

	// Sync
	SyncInterval      time.Duration
	SyncMaxConcurrent int
	SyncMaxAttempts   int
	SyncRetryDelay    time.Duration

	// Cover fetch
	CoverFetchTimeout time.Duration
	CoverFetchMaxSize int64

	// Rate Limit
	RateLimitGeneral int
	RateLimitSync    int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GitHubToken = getEnvString("GITHUB_TOKEN", "")
	cfg.AnthropicAPIKey = getEnvString("ANTHROPIC_API_KEY", "")
	cfg.AssistantModel = getEnvString("ASSISTANT_MODEL", "claude-sonnet-4-20250514")
	cfg.SyncInterval = getEnvDuration("SYNC_INTERVAL", 1*time.Hour)
	cfg.SyncMaxConcurrent = getEnvInt("SYNC_MAX_CONCURRENT", 5)
	cfg.SyncMaxAttempts = getEnvInt("SYNC_MAX_ATTEMPTS", 3)
	cfg.SyncRetryDelay = getEnvDuration("SYNC_RETRY_DELAY", 2*time.Second)
	cfg.CoverFetchTimeout = getEnvDuration("COVER_FETCH_TIMEOUT", 10*time.Second)
	cfg.CoverFetchMaxSize = getEnvInt64("COVER_FETCH_MAX_SIZE", 2097152)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSync = getEnvInt("RATE_LIMIT_SYNC", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
