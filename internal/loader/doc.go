// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package loader pulls market dominance data from the upstream and stores it
with full provenance.

Two entry points share one HTTP client:

  - Loader polls the live coin_dominance endpoint forever. It implements
    Start/Stop and runs under the supervisor as services.LoaderService.
  - Importer runs once against the historical market dominance chart and
    is driven by cmd/importer.

# Request Pacing

Every request first takes a token from a golang.org/x/time/rate bucket
(refill one per Interval, capacity Burst), then runs through a
sony/gobreaker circuit breaker. The live loader has no sleep of its own:
the bucket alone sets the pace, so a failing upstream is retried at the
same rate as a healthy one and the breaker sheds the calls while open.

Live requests carry a random _=<uint64> query parameter so caches in front
of the upstream never serve a stale snapshot.

# Provenance

The raw body, its Content-Type, the fetch time and the request/response
metadata (method, URL, status, headers as JSON) are stored before the body
is parsed. A body that fails to decode is still kept and can be inspected
through /api/v0/provenance/{uuid}.

After the rows commit the loader logs "Committed snapshot" and publishes a
SnapshotCommitted event, which the websocket hub forwards to clients.
*/
package loader
