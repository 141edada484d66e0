// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
database_schema.go - Database Schema Management

Tables:
  - object_storage: content-addressed blobs, unique on sha256
  - provenance: one row per upstream fetch, pointing at its raw blob
  - coin_dominance: one row per coin per snapshot, unique on
    (agent, timestamp_utc, coin_id)

All timestamps are naive UTC. Column types that differ between DuckDB and
Postgres come from the dialect.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	d := db.dialect
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS object_storage_id_seq START 1`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS object_storage (
			id BIGINT PRIMARY KEY DEFAULT nextval('object_storage_id_seq'),
			sha256 %[1]s NOT NULL UNIQUE,
			data %[1]s NOT NULL,
			mime TEXT
		)`, d.blobType),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS provenance (
			uuid UUID PRIMARY KEY,
			object_id BIGINT NOT NULL REFERENCES object_storage(id),
			agent TEXT NOT NULL,
			timestamp_utc TIMESTAMP NOT NULL,
			request_metadata %[1]s,
			response_metadata %[1]s
		)`, d.jsonType),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS coin_dominance (
			provenance_uuid UUID NOT NULL REFERENCES provenance(uuid),
			object_id BIGINT NOT NULL,
			agent TEXT NOT NULL,
			timestamp_utc TIMESTAMP NOT NULL,
			imported_at_utc TIMESTAMP NOT NULL,
			coin_id TEXT NOT NULL,
			coin_name TEXT NOT NULL,
			market_cap_usd %[1]s NOT NULL,
			market_dominance_percentage %[1]s NOT NULL,
			UNIQUE (agent, timestamp_utc, coin_id)
		)`, d.decimalType),
	}
}

// createIndexes creates the lookup indexes used by the read paths
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_coin_dominance_timestamp ON coin_dominance(timestamp_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_coin_dominance_coin_timestamp ON coin_dominance(coin_id, timestamp_utc)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
