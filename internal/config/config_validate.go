// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateHistory(); err != nil {
		return err
	}

	if err := c.validateLoader(); err != nil {
		return err
	}

	if err := c.validateImporter(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("DOMFI_API_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateDatabase validates the driver selection and its connection settings
func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Threads < 0 {
			return fmt.Errorf("DUCKDB_THREADS must not be negative")
		}
		return nil
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DOMFI_API_DATABASE_URL is required when DB_DRIVER=postgres")
		}
		if !strings.HasPrefix(c.Database.DSN, "postgres://") && !strings.HasPrefix(c.Database.DSN, "postgresql://") {
			return fmt.Errorf("DOMFI_API_DATABASE_URL must be a postgres:// URL")
		}
		return nil
	default:
		return fmt.Errorf("DB_DRIVER must be one of: %s, %s (got %q)", DriverDuckDB, DriverPostgres, c.Database.Driver)
	}
}

// validateHistory validates cache timing. A refresh interval at or above the
// TTL would let every entry expire before its first refresh.
func (c *Config) validateHistory() error {
	h := c.History
	if h.TTL <= 0 || h.UpdateInterval <= 0 {
		return fmt.Errorf("HISTORY_TTL and HISTORY_UPDATE_INTERVAL must be positive")
	}
	if h.UpdateInterval >= h.TTL {
		return fmt.Errorf("HISTORY_UPDATE_INTERVAL (%v) must be shorter than HISTORY_TTL (%v)", h.UpdateInterval, h.TTL)
	}
	if h.Capacity < 1 {
		return fmt.Errorf("HISTORY_CAPACITY must be at least 1")
	}
	return nil
}

// validateLoader validates loader configuration (only if enabled)
func (c *Config) validateLoader() error {
	if !c.Loader.Enabled {
		return nil
	}
	if c.Loader.URL == "" {
		return fmt.Errorf("DOMFI_LOADER_URL is required when DOMFI_LOADER_ENABLED=true")
	}
	if err := validateHTTPURL(c.Loader.URL, "DOMFI_LOADER_URL"); err != nil {
		return fmt.Errorf("DOMFI_LOADER_URL is invalid: %w", err)
	}
	if c.Loader.AgentName == "" {
		return fmt.Errorf("DOMFI_LOADER_AGENT_NAME must not be empty")
	}
	if c.Loader.Interval < minLoaderInterval {
		return fmt.Errorf("DOMFI_LOADER_INTERVAL must be at least %v", minLoaderInterval)
	}
	if c.Loader.Burst < 1 {
		return fmt.Errorf("DOMFI_LOADER_BURST must be at least 1")
	}
	return nil
}

// validateImporter validates the historical importer source
func (c *Config) validateImporter() error {
	if c.Importer.URL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Importer.URL, "DOMFI_LOADER_HIST_URL"); err != nil {
		return fmt.Errorf("DOMFI_LOADER_HIST_URL is invalid: %w", err)
	}
	return nil
}

const (
	minLoaderInterval = 100 * time.Millisecond

	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates API rate limiting bounds
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
