// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package config

import (
	"time"

	"github.com/tomtom215/domfi/internal/history"
)

// Config holds all application configuration.
//
// Loading order (later layers win):
//  1. Built-in defaults
//  2. Config file (config.yaml, or the path in CONFIG_PATH)
//  3. Environment variables, including any loaded from .env
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	History  HistoryConfig  `koanf:"history"`
	Loader   LoaderConfig   `koanf:"loader"`
	Importer ImporterConfig `koanf:"importer"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the store.
//
// Environment Variables:
//   - DB_DRIVER: duckdb or postgres (default: duckdb)
//   - DUCKDB_PATH: DuckDB file, empty for in-memory (default: /data/domfi.duckdb)
//   - DOMFI_API_DATABASE_URL / DOMFI_LOADER_DATABASE_URL: Postgres DSN
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Path         string `koanf:"path"`
	DSN          string `koanf:"dsn"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = use runtime.NumCPU()
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// HistoryConfig tunes the self-refreshing history cache.
type HistoryConfig struct {
	TTL            time.Duration `koanf:"ttl"`
	UpdateInterval time.Duration `koanf:"update_interval"`
	Capacity       int           `koanf:"capacity"`
	RequestBuffer  int           `koanf:"request_buffer"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// ServiceConfig converts to the history package's config.
func (h HistoryConfig) ServiceConfig() history.Config {
	return history.Config{
		TTL:            h.TTL,
		UpdateInterval: h.UpdateInterval,
		Capacity:       h.Capacity,
		RequestBuffer:  h.RequestBuffer,
		SweepInterval:  h.SweepInterval,
		RequestTimeout: h.RequestTimeout,
	}
}

// LoaderConfig drives the live snapshot loader.
//
// Environment Variables:
//   - DOMFI_LOADER_ENABLED: run the loader inside the server (default: false)
//   - DOMFI_LOADER_URL: snapshot endpoint (required when enabled)
//   - DOMFI_LOADER_AGENT_NAME: agent recorded with every row (default: loader_rust)
//   - DOMFI_LOADER_INTERVAL: one request per interval (default: 1250ms)
type LoaderConfig struct {
	Enabled   bool          `koanf:"enabled"`
	URL       string        `koanf:"url"`
	AgentName string        `koanf:"agent_name"`
	Interval  time.Duration `koanf:"interval"`
	Burst     int           `koanf:"burst"`
	Timeout   time.Duration `koanf:"timeout"`
}

// ImporterConfig drives the one-shot historical import.
type ImporterConfig struct {
	URL       string        `koanf:"url"`
	AgentName string        `koanf:"agent_name"`
	Timeout   time.Duration `koanf:"timeout"`
}

// SecurityConfig holds HTTP rate limiting and CORS settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, an optional YAML file, .env and
// the environment. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
