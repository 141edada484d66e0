// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package websocket streams committed snapshots to connected clients.

A Hub owns the client set. Each Client runs a read pump (application pings,
protocol pongs) and a write pump (hub messages, protocol pings every 54s).
The hub is driven by RunWithContext under the supervisor and fed by the
event router, which hands it encoded SnapshotCommitted events through
BroadcastRaw.

Messages are JSON:

	{"type": "snapshot", "data": {"provenance_uuid": "...", "agent": "loader_rust", "timestamp": 1767614430, "rows": 100}}

A client may send {"type": "ping"} and receives {"type": "pong"}.

Slow clients whose send buffer fills up are disconnected rather than
blocking the broadcast.
*/
package websocket
