// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package main is the domfi API server.

domfi stores CoinGecko market dominance snapshots with full provenance and
serves them, plus derived dominance instruments such as btcdom and altdom,
over a read-only HTTP API.

# Application Architecture

	root ("domfi")
	├── data-layer
	│   ├── history-service   72h per-minute datasets, cached and refreshed
	│   └── snapshot-loader   optional, DOMFI_LOADER_ENABLED=true
	├── messaging-layer
	│   ├── websocket-hub
	│   └── event-router      snapshot.committed -> websocket clients
	└── api-layer
	    └── http-server       chi router under /api/v0

Startup order:

 1. Configuration: koanf (defaults, config.yaml, .env, environment)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB file by default, Postgres with DB_DRIVER=postgres
 4. Registry of dominance instruments
 5. History service, event bus and websocket hub
 6. Loader, when enabled
 7. HTTP server

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service within its shutdown timeout and the database is closed last.

# Example

	export DOMFI_API_PORT=8080
	export DOMFI_LOADER_ENABLED=true
	export DOMFI_LOADER_URL=https://www.coingecko.com/global_charts/coin_dominance
	./domfi-server
*/
package main
