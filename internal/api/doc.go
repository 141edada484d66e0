// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package api serves the read-only domfi HTTP API under /api/v0.

Routes:

	GET /api/v0/ping
	GET /api/v0/provenance/{uuid}
	GET /api/v0/blob/{sha256}
	GET /api/v0/coingecko/coin_dominance?timestamp=<unix s>
	GET /api/v0/price?timestamp=<unix s>
	GET /api/v0/price/{id}?timestamp=<unix s>
	GET /api/v0/history/{id}?slim=<bool>
	GET /api/v0/ws
	GET /api/v0/health/live
	GET /api/v0/health/ready
	GET /metrics

Every success body carries "status": "success". Failures are

	{"status": "error", "reason": "..."}

with the status code chosen by writeDomainError. Decimal fields are raw
JSON numbers carrying every stored digit.

Middleware, outermost first: request ID with logging context, real IP,
panic recovery, CORS (go-chi/cors), per-IP rate limiting (go-chi/httprate)
and Prometheus request metrics.
*/
package api
