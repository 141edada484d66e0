// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"

	"github.com/tomtom215/domfi/internal/config"
	"github.com/tomtom215/domfi/internal/logging"
)

// DB wraps the SQL connection pool and provides data access methods. The
// same queries run on DuckDB and Postgres; dialect covers the differences.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect

	// now stamps imported_at_utc. Replaced in tests.
	now func() time.Time
}

// New opens the configured store and creates the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	driverName, dsn, err := connectionString(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:    conn,
		cfg:     cfg,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", d.name).
		Str("path", cfg.Path).
		Msg("Database ready")

	return db, nil
}

// connectionString builds the driver name and DSN for cfg.
func connectionString(cfg *config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return "", "", fmt.Errorf("postgres driver requires a DSN")
		}
		return "postgres", cfg.DSN, nil

	case config.DriverDuckDB, "":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}

		// Ensure parent directory exists for database file
		if path != ":memory:" {
			if dir := filepath.Dir(path); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return "", "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
				}
			}
		}

		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}

		// Extensions are never fetched at runtime; the schema needs none.
		return "duckdb", fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			path, threads, maxMemory), nil

	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Conn returns the underlying SQL connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the active dialect name.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Close closes the connection pool. DuckDB is checkpointed first so the
// next start does not replay the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if db.dialect.name == config.DriverDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}

	return db.conn.Close()
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates tables and indexes
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	return db.createIndexes()
}
