// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a real Postgres server so the
// database package can exercise its postgres dialect against the same
// cases it runs on in-memory DuckDB.
//
// # Postgres Container
//
//	func TestStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    dsn, err := pg.CreateDatabase(ctx, "case_one")
//	    // open database.New with driver=postgres and dsn
//	}
//
// CreateDatabase gives every test case an empty database on the shared
// server, which is much faster than a container per case.
//
// # CI Considerations
//
// These tests require Docker and the integration build tag:
//
//	go test -tags integration ./internal/database/...
//
// Tests are skipped gracefully if Docker is unavailable. The first run
// pulls the postgres image.
package testinfra
