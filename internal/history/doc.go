// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package history serves trailing dominance history from a self-refreshing cache.

# Architecture

	HTTP handler --Request--> [requests chan] --> coordinator (Serve)
	                                               |  owns cache.TTL
	                 fetch goroutine <--miss-------+
	                 fetch goroutine --fetchCompleted-->
	                 monitor (per key) <--shouldUpdate/updatedDataset-->

The coordinator is the only goroutine touching the cache, so the cache has
no lock. Fetches never run on the coordinator: a miss spawns a fetch whose
result is posted back, and concurrent misses for the same key wait on that
single fetch.

# Expiry

Entries expire TTL after the last read. A monitor refresh swaps the value
in place without moving the expiry, so an asset nobody asks for falls out
of the cache after TTL and its monitor stops on the next tick. A refresh
that lands after expiry is dropped; it never resurrects the entry.

# Errors

  - ErrCoinUnknownOrNotAllowed: id not in the registry
  - ErrDBError: the fetch failed
  - *TransportError: the request/reply exchange with the coordinator failed
    (stopped, timed out, or no service at all)
*/
package history
