// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/domfi/internal/logging"
)

// EventRouter is satisfied by *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router. A watermill router cannot be run
// twice, so every restart asks for a new one.
type RouterFactory func() (EventRouter, error)

// EventRouterService runs the snapshot event router that feeds the
// websocket hub.
type EventRouterService struct {
	factory      RouterFactory
	closeTimeout time.Duration
	name         string
}

// NewEventRouterService wraps factory. A non-positive closeTimeout means 10s.
//
//	svc := services.NewEventRouterService(func() (services.EventRouter, error) {
//	    return events.NewSnapshotRouter(bus, hub, &routerCfg, wmLogger)
//	}, 10*time.Second)
//	tree.AddMessagingService(svc)
func NewEventRouterService(factory RouterFactory, closeTimeout time.Duration) *EventRouterService {
	if closeTimeout <= 0 {
		closeTimeout = 10 * time.Second
	}
	return &EventRouterService{
		factory:      factory,
		closeTimeout: closeTimeout,
		name:         "event-router",
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("event router setup failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("event router failed: %w", err)
		}
		return fmt.Errorf("event router exited unexpectedly")

	case <-ctx.Done():
		if err := router.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event router close failed")
		}
		select {
		case <-errCh:
		case <-time.After(s.closeTimeout):
			logging.Warn().Dur("timeout", s.closeTimeout).Msg("Event router did not stop in time")
		}
		return ctx.Err()
	}
}

func (s *EventRouterService) String() string {
	return s.name
}
