// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

// Package database stores and queries market dominance snapshots.
//
// # Overview
//
// Every upstream fetch is recorded three ways: the raw response body in
// object_storage (content addressed by sha256), a provenance row naming the
// agent, fetch time and HTTP metadata, and one coin_dominance row per coin
// in the snapshot. Read paths resolve a snapshot by timestamp and join the
// provenance back so every API answer can be traced to its raw bytes.
//
// # Stores
//
// Two drivers share one set of queries:
//   - duckdb (default): github.com/duckdb/duckdb-go/v2, a single local file
//   - postgres: github.com/lib/pq, selected with database.driver=postgres
//
// Both accept $n placeholders and DISTINCT ON. Column types that differ
// (decimals, blobs, JSON) live in dialect.go. DuckDB keeps decimals as
// VARCHAR so every digit round-trips; shopspring/decimal scans either form.
//
// # Files
//
//   - database.go: lifecycle (New, Close, Ping)
//   - database_schema.go: tables, sequence and indexes
//   - database_connection.go: pool settings
//   - crud_provenance.go: InsertProvenance, GetProvenance, GetBlob
//   - crud_coin_dominance.go: snapshot inserts and lookups
//   - history.go: per-minute history and the history.Fetcher adapter
//
// # Errors
//
// Lookups that match nothing return an error wrapping ErrNotFound, which in
// turn wraps sql.ErrNoRows.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	snap, err := db.FindByTimestamp(ctx, nil) // newest snapshot
package database
