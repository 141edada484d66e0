// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package config loads and validates domfi configuration.

# Configuration Sources

Koanf v2 layers, lowest to highest priority:
  - struct defaults (defaultConfig)
  - an optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/domfi/config.yaml
  - environment variables, after .env has been merged in with godotenv

Only mapped environment variables are read (see envMappings).

# Environment Variables

Server:
  - DOMFI_API_HOST / HTTP_HOST: bind address (default: 0.0.0.0)
  - DOMFI_API_PORT / HTTP_PORT: listen port (default: 8000)
  - ENVIRONMENT: development, staging, production

Database:
  - DB_DRIVER: duckdb or postgres (default: duckdb)
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - DOMFI_API_DATABASE_URL: Postgres DSN

History cache:
  - HISTORY_TTL (5m), HISTORY_UPDATE_INTERVAL (45s), HISTORY_CAPACITY

Loader:
  - DOMFI_LOADER_ENABLED, DOMFI_LOADER_URL, DOMFI_LOADER_AGENT_NAME,
    DOMFI_LOADER_INTERVAL (1250ms)

Historical importer:
  - DOMFI_LOADER_HIST_URL, DOMFI_LOADER_HIST_AGENT_NAME

Security:
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: comma-separated

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	svc := history.NewService(cfg.History.ServiceConfig(), registry, fetcher, nil)
*/
package config
