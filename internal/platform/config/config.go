// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds the server settings.
type Config struct {
	// Port is the TCP port the server listens on.
	Port string
	// DocsPath serves the API reference UI. Security headers are not applied below it.
	DocsPath string
	// ShutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
	ShutdownTimeout time.Duration
	// SimulatedLatency delays every greeting response. Zero disables it.
	SimulatedLatency time.Duration
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	// LogLevel is the minimum level written by the process logger.
	LogLevel zapcore.Level
	// TraceProjectID is the Google Cloud project used to build trace resource names.
	TraceProjectID string
}

// Defaults.
const (
	DefaultPort            = "8080"
	DefaultDocsPath        = "/api-docs"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
)

// Load reads a .env file from the working directory if one exists, then builds the
// Config from the environment. Variables already set in the environment take precedence
// over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		DocsPath:       getEnv("DOCS_PATH", DefaultDocsPath),
		TraceProjectID: firstEnv("GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT", "PROJECT_ID"),
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.SimulatedLatency, err = durationEnv("SIMULATED_LATENCY", 0); err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes, err = int64Env("MAX_BODY_BYTES", DefaultMaxBodyBytes); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = levelEnv("LOG_LEVEL", zapcore.InfoLevel); err != nil {
		return nil, err
	}
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("config: PORT: invalid port %q", cfg.Port)
	}
	return cfg, nil
}

// Addr returns the listen address for http.Server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s: must not be negative, got %s", key, d)
	}
	return d, nil
}

func int64Env(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("config: %s: must be positive, got %d", key, n)
	}
	return n, nil
}

func levelEnv(key string, def zapcore.Level) (zapcore.Level, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	l, err := zapcore.ParseLevel(raw)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return l, nil
}
