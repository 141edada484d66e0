// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache type label values.
const (
	CacheTypeHistory = "history"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domfi_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBRowsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_db_rows_inserted_total",
			Help: "Rows inserted, excluding conflicts that were skipped",
		},
		[]string{"table"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domfi_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "domfi_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the per-IP rate limiter",
		},
		[]string{"endpoint"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domfi_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_cache_evictions_total",
			Help: "Total number of expired or capacity-evicted cache entries",
		},
		[]string{"cache_type"},
	)

	// History Service Metrics
	HistoryActiveMonitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "domfi_history_active_monitors",
			Help: "Number of running per-asset history monitors",
		},
	)

	HistoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domfi_history_fetch_duration_seconds",
			Help:    "Duration of history dataset fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"}, // "miss", "refresh"
	)

	HistoryFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_history_fetch_errors_total",
			Help: "Total number of failed history dataset fetches",
		},
		[]string{"trigger"},
	)

	HistoryUpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domfi_history_updates_dropped_total",
			Help: "Refreshed datasets discarded because the entry had already expired",
		},
	)

	// Loader Metrics
	LoaderSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_loader_snapshots_total",
			Help: "Total number of upstream snapshot attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	LoaderRowsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domfi_loader_rows_imported_total",
			Help: "Total number of coin dominance rows submitted for insert",
		},
	)

	LoaderRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "domfi_loader_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the upstream rate limiter",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	LoaderLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "domfi_loader_last_success_timestamp",
			Help: "Unix time of the last committed snapshot",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "domfi_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domfi_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domfi_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfi_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domfi_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorType(err)).Inc()
	}
}

// errorType buckets an error into a low-cardinality label.
func errorType(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no rows"):
		return "not_found"
	case strings.Contains(msg, "context deadline"), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "context canceled"):
		return "canceled"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a hit or miss for cacheType.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordHistoryFetch records a history fetch triggered by a miss or a refresh.
func RecordHistoryFetch(trigger string, duration time.Duration, err error) {
	HistoryFetchDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	if err != nil {
		HistoryFetchErrors.WithLabelValues(trigger).Inc()
	}
}

// RecordSnapshot records the outcome of one loader iteration.
func RecordSnapshot(rows int, err error) {
	if err != nil {
		LoaderSnapshots.WithLabelValues("failure").Inc()
		return
	}
	LoaderSnapshots.WithLabelValues("success").Inc()
	LoaderRowsImported.Add(float64(rows))
	LoaderLastSuccess.Set(float64(time.Now().Unix()))
}
