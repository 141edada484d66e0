// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package supervisor runs domfi's long-lived services under a suture v4 tree.

# Layout

	root ("domfi")
	├── data-layer
	│   ├── history-service   (interval cache coordinator)
	│   └── snapshot-loader   (upstream poller)
	├── messaging-layer
	│   ├── websocket-hub
	│   └── event-router      (snapshot.committed -> hub)
	└── api-layer
	    └── http-server

Each layer counts failures on its own, so a websocket crash loop does not
back off the HTTP server. A restarted history-service starts with an empty
cache; waiters of the failed instance get a receive error and callers retry.

# Logging

Supervisor events (start, failure, backoff, restart) are written through
sutureslog into the zerolog-backed slog handler from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(historySvc)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

See the services subpackage for the lifecycle adapters.
*/
package supervisor
