// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string        // debug, info, warn, error
	ListenAddr        string        // Server listen address (e.g., ":8080")
	MetricsListenAddr string        // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string        // SQLite database path
	StoragePath       string        // Root directory for exchanged files
	SessionSecret     string        // Required: HMAC secret for signed credentials
	SessionTTL        time.Duration // Guest session lifetime
	AdminSessionTTL   time.Duration // Admin login lifetime
	MaxUploadBodyMB   int64         // Hard cap on raw upload body size
}

// Load parses configuration from environment variables.
// All options except SESSION_SECRET have sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          envOr("LOG_LEVEL", "info"),
		ListenAddr:        envOr("LISTEN_ADDR", ":8080"),
		MetricsListenAddr: envOr("METRICS_LISTEN_ADDR", "localhost:9090"),
		DatabasePath:      envOr("DATABASE_PATH", "/data/securedrop.db"),
		StoragePath:       envOr("STORAGE_PATH", "/data/uploads"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
	}

	sessionMinutes, err := envIntOr("SESSION_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = time.Duration(sessionMinutes) * time.Minute

	adminMinutes, err := envIntOr("ADMIN_SESSION_TTL_MINUTES", 480)
	if err != nil {
		return nil, err
	}
	cfg.AdminSessionTTL = time.Duration(adminMinutes) * time.Minute

	cfg.MaxUploadBodyMB, err = envIntOr("MAX_UPLOAD_BODY_MB", 1024)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}
	if c.MaxUploadBodyMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BODY_MB must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
