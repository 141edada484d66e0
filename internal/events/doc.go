// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

// Package events carries snapshot notifications from the loader to the
// websocket hub over an in-process watermill gochannel bus.
//
//	loader --PublishSnapshotCommitted--> Bus --snapshot.committed--> Router --BroadcastRaw--> websocket.Hub
//
// The router adds panic recovery and retries. Payloads are the JSON form of
// models.SnapshotCommitted.
package events
