// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package cache provides a capacity-bounded TTL store with an injectable clock.

# Overview

TTL[V] keeps values under string keys, each with its own expiry instant:
  - Get returns only live entries and lazily drops expired ones
  - Touch re-arms an entry's expiry (sliding expiration on read)
  - Replace swaps a live value without extending its lifetime
  - Sweep removes everything already expired
  - At capacity, Insert evicts the entry expiring soonest

Expiry is indexed with a min-heap, so Sweep and capacity eviction cost
O(log n) per removed entry.

# Concurrency

TTL carries no lock. The history coordinator is its only owner and
serializes all access through its message loop. Wrap it in a mutex if a
second owner is ever needed.

# Clock

The clock is a plain func() time.Time. Production code passes time.Now (or
the coordinator's clock); tests pass a fake to step time deterministically.
*/
package cache
