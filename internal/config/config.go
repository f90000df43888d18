// Package config loads serve-mode configuration from the environment, with
// optional .env support for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aretw0/parley/internal/logging"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config aggregates the serve-mode settings.
type Config struct {
	Addr        string
	TemplateDir string
	LogLevel    slog.Level

	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load() // Missing .env is not an error.

	cfg := &Config{
		TemplateDir: envOr("PARLEY_TEMPLATE_DIR", "./templates"),
		Backend:     strings.ToLower(envOr("PARLEY_BACKEND", BackendMemory)),
		RedisAddr:   envOr("PARLEY_REDIS_ADDR", "localhost:6379"),
	}

	addr, err := parseAddr(envOr("PORT", "8080"))
	if err != nil {
		return nil, err
	}
	cfg.Addr = addr

	level, err := logging.ParseLevel(os.Getenv("PARLEY_LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	switch cfg.Backend {
	case BackendMemory, BackendRedis:
	default:
		return nil, fmt.Errorf("invalid PARLEY_BACKEND: %q (expected %s or %s)", cfg.Backend, BackendMemory, BackendRedis)
	}

	cfg.RedisPassword = os.Getenv("PARLEY_REDIS_PASSWORD")

	if raw := strings.TrimSpace(os.Getenv("PARLEY_REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PARLEY_REDIS_DB: %q", raw)
		}
		cfg.RedisDB = db
	}

	if raw := strings.TrimSpace(os.Getenv("PARLEY_SESSION_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PARLEY_SESSION_TTL: %q", raw)
		}
		cfg.SessionTTL = ttl
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parseAddr accepts "8080", ":8080", or "127.0.0.1:8080".
func parseAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if strings.Contains(port, ":") {
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}
