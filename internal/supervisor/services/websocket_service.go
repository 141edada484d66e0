// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tomtom215/domfi/internal/logging"
)

// SnapshotHub is satisfied by *websocket.Hub.
type SnapshotHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService runs the snapshot broadcast hub. Clients connected
// to a hub that exits are closed by the hub itself, so a restart starts
// from an empty client set and subscribers reconnect.
type WebSocketHubService struct {
	hub  SnapshotHub
	runs atomic.Int64
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub SnapshotHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	run := w.runs.Add(1)
	if run > 1 {
		logging.Warn().Int64("run", run).Msg("WebSocket hub restarted, snapshot subscribers must reconnect")
	}

	err := w.hub.RunWithContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logging.Error().Err(err).Int64("run", run).Msg("WebSocket hub exited")
	}
	return err
}

// Runs reports how many times Serve has been entered.
func (w *WebSocketHubService) Runs() int64 {
	return w.runs.Load()
}

func (w *WebSocketHubService) String() string {
	return "websocket-hub"
}
