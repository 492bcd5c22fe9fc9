// Package config は環境変数ベースのアプリケーション設定を提供する。
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

	// Server
	ServerPort string

	// Gateway
	GatewayPort    string
	ServerURL      string // ゲートウェイの転送先（バックエンドAPI）
	ForwardTimeout time.Duration

	// Pagination
	// リビジョンによりデフォルトページサイズが10と20で揺れているため設定値とする。
	DefaultPageSize int

	// Compatibility
	// trueの場合、絞り込み結果が空の予約一覧を404として返す（旧リビジョン互換）。
	BookingsEmptyAsError bool

	// Rate Limit
	RateLimitGeneral int // req/min/user

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// DATABASE_URLが未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variable is not set: DATABASE_URL")
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", "9090")
	cfg.GatewayPort = getEnvString("GATEWAY_PORT", "8080")
	cfg.ServerURL = getEnvString("SHAREIT_SERVER_URL", "http://localhost:9090")
	cfg.ForwardTimeout = getEnvDuration("FORWARD_TIMEOUT", 10*time.Second)
	cfg.DefaultPageSize = getEnvInt("DEFAULT_PAGE_SIZE", 10)
	cfg.BookingsEmptyAsError = getEnvBool("BOOKINGS_EMPTY_AS_ERROR", false)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.DefaultPageSize <= 0 {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive: %d", cfg.DefaultPageSize)
	}

	return cfg, nil
}

// LoadGateway はゲートウェイモード用のConfigを読み込む。
// ゲートウェイはDBに接続しないため、DATABASE_URLを必須としない。
func LoadGateway() (*Config, error) {
	cfg := &Config{}

	cfg.ServerURL = os.Getenv("SHAREIT_SERVER_URL")
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("required environment variable is not set: SHAREIT_SERVER_URL")
	}

	cfg.GatewayPort = getEnvString("GATEWAY_PORT", "8080")
	cfg.ForwardTimeout = getEnvDuration("FORWARD_TIMEOUT", 10*time.Second)
	cfg.DefaultPageSize = getEnvInt("DEFAULT_PAGE_SIZE", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.DefaultPageSize <= 0 {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive: %d", cfg.DefaultPageSize)
	}

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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
