// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

// Command importer loads CoinGecko's long-range market dominance chart into
// the database once and exits. It is safe to rerun: rows that already exist
// for a coin and timestamp are left alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/domfi/internal/config"
	"github.com/tomtom215/domfi/internal/database"
	"github.com/tomtom215/domfi/internal/loader"
	"github.com/tomtom215/domfi/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Historical import failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if cfg.Importer.URL == "" {
		return errors.New("DOMFI_LOADER_HIST_URL is required")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := loader.NewImporter(cfg.Importer, db).Run(ctx)
	if err != nil {
		return err
	}

	logging.Info().
		Str("provenance", res.Provenance.UUID.String()).
		Int("series", res.Series).
		Strs("skipped", res.Skipped).
		Int("inserted", res.Inserted).
		Msg("Historical import complete")
	return nil
}
