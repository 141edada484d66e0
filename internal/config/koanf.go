// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/domfi/config.yaml",
	"/etc/domfi/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFiles are loaded into the process environment before anything else.
// Variables already set are never overwritten.
var DotEnvFiles = []string{".env"}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:       DriverDuckDB,
			Path:         "/data/domfi.duckdb",
			DSN:          "",
			MaxMemory:    "1GB",
			Threads:      0,
			MaxOpenConns: 10,
		},
		History: HistoryConfig{
			TTL:            5 * time.Minute,
			UpdateInterval: 45 * time.Second,
			Capacity:       4096,
			RequestBuffer:  1024,
			SweepInterval:  time.Minute,
			RequestTimeout: 30 * time.Second,
		},
		Loader: LoaderConfig{
			Enabled:   false,
			URL:       "",
			AgentName: "loader_rust",
			Interval:  1250 * time.Millisecond,
			Burst:     5,
			Timeout:   30 * time.Second,
		},
		Importer: ImporterConfig{
			URL:       "https://www.coingecko.com/global_charts/market_dominance_data?locale=en",
			AgentName: "loader_historical",
			Timeout:   2 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// .env files are merged into the process environment first, so their
// values behave exactly like real environment variables.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(DotEnvFiles...); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv merges .env files into the environment. A missing file is not
// an error.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		err := godotenv.Load(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// The DOMFI_* names are the ones deployments already use.
var envMappings = map[string]string{
	// Server
	"domfi_api_host":    "server.host",
	"domfi_api_port":    "server.port",
	"domfi_api_timeout": "server.timeout",
	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"environment":       "server.environment",

	// Database
	"db_driver":                      "database.driver",
	"duckdb_path":                    "database.path",
	"duckdb_max_memory":              "database.max_memory",
	"duckdb_threads":                 "database.threads",
	"db_max_open_conns":              "database.max_open_conns",
	"domfi_api_database_url":         "database.dsn",
	"domfi_loader_database_url":      "database.dsn",
	"domfi_loader_hist_postgres_url": "database.dsn",

	// History cache
	"history_ttl":             "history.ttl",
	"history_update_interval": "history.update_interval",
	"history_capacity":        "history.capacity",
	"history_request_buffer":  "history.request_buffer",
	"history_sweep_interval":  "history.sweep_interval",
	"history_request_timeout": "history.request_timeout",

	// Loader
	"domfi_loader_enabled":    "loader.enabled",
	"domfi_loader_url":        "loader.url",
	"domfi_loader_agent_name": "loader.agent_name",
	"domfi_loader_interval":   "loader.interval",
	"domfi_loader_burst":      "loader.burst",
	"domfi_loader_timeout":    "loader.timeout",

	// Historical importer
	"domfi_loader_hist_url":        "importer.url",
	"domfi_loader_hist_agent_name": "importer.agent_name",
	"domfi_loader_hist_timeout":    "importer.timeout",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so unrelated environment
// never pollutes the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
