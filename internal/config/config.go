// Package config resolves CLI defaults from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it. Command-line flags override
// everything resolved here.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDB       = "REINDEX_DB"
	EnvFormat   = "REINDEX_FORMAT"
	EnvWorkers  = "REINDEX_WORKERS"
	EnvLogLevel = "REINDEX_LOG_LEVEL"
)

// Defaults used when neither the environment nor a flag sets a value.
const (
	DefaultDB     = "reindex.db"
	DefaultFormat = "text"
)

// Config holds resolved defaults.
type Config struct {
	DB       string
	Format   string
	Workers  int
	LogLevel slog.Level
}

// Load reads an optional .env file from the working directory and resolves
// the configuration from the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// LoadFile reads the named dotenv files (all must exist) and resolves the
// configuration from the process environment.
func LoadFile(filenames ...string) (*Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves the configuration through getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DB:       firstNonEmpty(strings.TrimSpace(getenv(EnvDB)), DefaultDB),
		Format:   firstNonEmpty(strings.ToLower(strings.TrimSpace(getenv(EnvFormat))), DefaultFormat),
		LogLevel: slog.LevelInfo,
	}

	if raw := strings.TrimSpace(getenv(EnvWorkers)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: want a non-negative integer, got %q", EnvWorkers, raw)
		}
		cfg.Workers = n
	}

	if raw := strings.TrimSpace(getenv(EnvLogLevel)); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}

	switch cfg.Format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("%s: unsupported format %q (want text, json or yaml)", EnvFormat, cfg.Format)
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
