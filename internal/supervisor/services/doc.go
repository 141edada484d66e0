// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package services adapts domfi components to the suture v4 Service
interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

  - HTTPServerService: *http.Server, drained with Shutdown on cancel
  - WebSocketHubService: websocket.Hub, delegating to RunWithContext
  - LoaderService: loader.Loader, mapping Start/Stop onto Serve
  - EventRouterService: events.Router, rebuilt from a factory on each restart

history.Service implements Serve itself and is added to the tree directly.

# Return Values

Serve returns ctx.Err() on a requested shutdown and a wrapped error on
failure. Suture restarts a failed service with backoff; the supervisor's
failure threshold keeps a crash loop from spinning.
*/
package services
