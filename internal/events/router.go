// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/domfi/internal/logging"
)

// RouterConfig holds configuration for the watermill router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Broadcaster receives encoded snapshot events. Implemented by
// websocket.Hub.
type Broadcaster interface {
	BroadcastRaw(data []byte)
}

// Router wraps a watermill router with panic recovery and retries.
type Router struct {
	router *message.Router
	config RouterConfig
	logger watermill.LoggerAdapter
}

// NewRouter creates a router. Middleware runs outer to inner: Recoverer,
// then Retry.
func NewRouter(cfg *RouterConfig, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg == nil {
		def := DefaultRouterConfig()
		cfg = &def
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	return &Router{router: wmRouter, config: *cfg, logger: logger}, nil
}

// AddConsumerHandler registers a handler with no output topic.
func (r *Router) AddConsumerHandler(name, topic string, sub message.Subscriber, handler message.NoPublishHandlerFunc) *message.Handler {
	return r.router.AddConsumerHandler(name, topic, sub, handler)
}

// Run blocks until ctx is canceled or the router fails.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for handlers.
func (r *Router) Close() error {
	return r.router.Close()
}

// NewSnapshotRouter wires TopicSnapshotCommitted from bus to broadcaster.
func NewSnapshotRouter(bus *Bus, broadcaster Broadcaster, cfg *RouterConfig, logger watermill.LoggerAdapter) (*Router, error) {
	r, err := NewRouter(cfg, logger)
	if err != nil {
		return nil, err
	}
	r.AddConsumerHandler("websocket-broadcast", TopicSnapshotCommitted, bus.Subscriber(), BroadcastHandler(broadcaster))
	return r, nil
}

// BroadcastHandler forwards each validated snapshot event to b. Events that
// fail to decode are acked and dropped; retrying cannot fix them.
func BroadcastHandler(b Broadcaster) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ev, err := DecodeSnapshotCommitted(msg)
		if err != nil {
			logging.Warn().Err(err).Msg("Dropping malformed snapshot event")
			return nil
		}

		logging.Debug().
			Str("provenance", ev.ProvenanceUUID.String()).
			Int("rows", ev.Rows).
			Msg("Broadcasting snapshot event")
		b.BroadcastRaw(msg.Payload)
		return nil
	}
}
