// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/domfi/internal/api"
	"github.com/tomtom215/domfi/internal/config"
	"github.com/tomtom215/domfi/internal/database"
	"github.com/tomtom215/domfi/internal/events"
	"github.com/tomtom215/domfi/internal/history"
	"github.com/tomtom215/domfi/internal/loader"
	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
	"github.com/tomtom215/domfi/internal/supervisor"
	"github.com/tomtom215/domfi/internal/supervisor/services"
	ws "github.com/tomtom215/domfi/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
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

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("driver", cfg.Database.Driver).
		Str("environment", cfg.Server.Environment).
		Bool("loader", cfg.Loader.Enabled).
		Msg("Starting domfi")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	registry := models.DefaultRegistry()
	logging.Info().Strs("instruments", registry.Keys()).Msg("Registry loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	// Data layer
	historySvc := history.NewService(cfg.History.ServiceConfig(), registry, database.HistoryFetcher{DB: db}, nil)
	tree.AddDataService(historySvc)

	wmLogger := logging.NewWatermillLogger()
	bus := events.NewBus(events.DefaultBusConfig(), wmLogger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	if cfg.Loader.Enabled {
		tree.AddDataService(services.NewLoaderService(loader.New(cfg.Loader, db, bus)))
		logging.Info().Str("url", cfg.Loader.URL).Msg("Loader added to supervisor tree")
	}

	// Messaging layer
	wsHub := ws.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))

	routerCfg := events.DefaultRouterConfig()
	tree.AddMessagingService(services.NewEventRouterService(func() (services.EventRouter, error) {
		return events.NewSnapshotRouter(bus, wsHub, &routerCfg, wmLogger)
	}, routerCfg.CloseTimeout))

	// API layer
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled

	handler := api.NewHandler(db, historySvc, registry, wsHub, cfg.Security.CORSOrigins)
	router := api.NewRouter(handler, api.NewChiMiddleware(mwCfg))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	tree.LogUnstopped()
	logging.Info().Msg("Application stopped gracefully")
	return nil
}
