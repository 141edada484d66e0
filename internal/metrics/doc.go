// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package metrics provides Prometheus metrics for domfi.

All collectors are registered on the default registry through promauto and
exported by the API at /metrics.

# Available Metrics

API:
  - domfi_api_requests_total (method, endpoint, status_code)
  - domfi_api_request_duration_seconds (method, endpoint)
  - domfi_api_active_requests
  - domfi_api_rate_limit_hits_total (endpoint)

Database:
  - domfi_db_query_duration_seconds (operation, table)
  - domfi_db_query_errors_total (operation, table, error_type)
  - domfi_db_rows_inserted_total (table)

History cache:
  - domfi_cache_hits_total / domfi_cache_misses_total (cache_type="history")
  - domfi_cache_entries, domfi_cache_evictions_total (cache_type)
  - domfi_history_active_monitors
  - domfi_history_fetch_duration_seconds, domfi_history_fetch_errors_total (trigger)
  - domfi_history_updates_dropped_total

Loader:
  - domfi_loader_snapshots_total (result)
  - domfi_loader_rows_imported_total
  - domfi_loader_rate_limit_wait_seconds
  - domfi_loader_last_success_timestamp
  - domfi_circuit_breaker_* (name)

Realtime:
  - domfi_events_published_total (topic)
  - domfi_websocket_connections, domfi_websocket_messages_sent_total

# Testing

Use prometheus/testutil to read counter values:

	before := testutil.ToFloat64(metrics.CacheHits.WithLabelValues("history"))
*/
package metrics
