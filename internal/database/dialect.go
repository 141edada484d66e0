// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package database

import (
	"fmt"

	"github.com/tomtom215/domfi/internal/config"
)

// dialect holds the column types and expressions that differ between
// stores. Queries use $n placeholders, which both drivers accept.
type dialect struct {
	name string

	blobType    string
	jsonType    string
	decimalType string

	// numeric returns an expression that orders col numerically.
	numeric func(col string) string

	// objectConflict is the ON CONFLICT action for object_storage. DuckDB
	// runs DO UPDATE as delete plus insert, which a referenced row rejects.
	objectConflict string
}

// DuckDB keeps decimals as VARCHAR so no digit is ever rounded away by a
// fixed DECIMAL(p,s); ordering casts on the fly.
var duckDBDialect = dialect{
	name:        config.DriverDuckDB,
	blobType:    "BLOB",
	jsonType:    "VARCHAR",
	decimalType: "VARCHAR",
	numeric: func(col string) string {
		return fmt.Sprintf("CAST(%s AS DOUBLE)", col)
	},
	objectConflict: "DO NOTHING",
}

var postgresDialect = dialect{
	name:        config.DriverPostgres,
	blobType:    "BYTEA",
	jsonType:    "JSONB",
	decimalType: "NUMERIC",
	numeric: func(col string) string {
		return col
	},
	objectConflict: "DO UPDATE SET mime = excluded.mime",
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverDuckDB, "":
		return duckDBDialect, nil
	case config.DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
