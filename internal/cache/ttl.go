// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package cache

import (
	"time"
)

// Stats tracks cache performance metrics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
	LastSweep time.Time
}

// TTL is a capacity-bounded map whose entries expire after a per-entry
// time-to-live.
//
// TTL is NOT safe for concurrent use. It is meant to be owned by a single
// goroutine (the history coordinator), which serializes every access.
//
// An entry is expired once the clock reaches its expiry instant. Expired
// entries are removed lazily on access and eagerly by Sweep.
type TTL[V any] struct {
	entries  map[string]*entry[V]
	expiry   expiryHeap[V]
	capacity int
	now      func() time.Time
	stats    Stats
}

// NewTTL creates a TTL cache holding at most capacity entries. A capacity of
// zero or less means unbounded. now is the clock; nil uses time.Now.
//
// Example:
//
//	c := cache.NewTTL[*models.Dataset](4096, clock.Now)
//	c.Insert("btcdom", dataset, 5*time.Minute)
//	if ds, ok := c.Get("btcdom"); ok {
//	    c.Touch("btcdom", 5*time.Minute)
//	}
func NewTTL[V any](capacity int, now func() time.Time) *TTL[V] {
	if now == nil {
		now = time.Now
	}
	return &TTL[V]{
		entries:  make(map[string]*entry[V]),
		capacity: capacity,
		now:      now,
		stats:    Stats{LastSweep: now()},
	}
}

// Get returns the value for key if it is present and not expired.
// An expired entry is removed and counted as both a miss and an eviction.
func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V

	e, ok := c.live(key)
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	c.stats.Hits++
	return e.value, true
}

// Contains reports whether key is present and not expired. It does not
// touch hit or miss counters.
func (c *TTL[V]) Contains(key string) bool {
	_, ok := c.live(key)
	return ok
}

// Insert stores value under key with a fresh expiry of now+ttl, overwriting
// any existing entry. When the cache is full, the entry expiring soonest is
// evicted to make room.
func (c *TTL[V]) Insert(key string, value V, ttl time.Duration) {
	expiresAt := c.now().Add(ttl)

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.expiry.fix(e.index)
		return
	}

	if c.capacity > 0 && len(c.entries) >= c.capacity {
		c.evictSoonest()
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.expiry.push(e)
	c.stats.TotalKeys = int64(len(c.entries))
}

// Touch re-arms the expiry of a live entry to now+ttl. It returns false,
// and changes nothing, when the key is missing or already expired.
func (c *TTL[V]) Touch(key string, ttl time.Duration) bool {
	e, ok := c.live(key)
	if !ok {
		return false
	}
	e.expiresAt = c.now().Add(ttl)
	c.expiry.fix(e.index)
	return true
}

// Replace swaps the value of a live entry while keeping its expiry. It
// returns false, and inserts nothing, when the key is missing or expired.
func (c *TTL[V]) Replace(key string, value V) bool {
	e, ok := c.live(key)
	if !ok {
		return false
	}
	e.value = value
	return true
}

// Delete removes key. It reports whether an entry was removed.
func (c *TTL[V]) Delete(key string) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)
	c.stats.Evictions++
	return true
}

// Len returns the number of stored entries, including expired entries that
// have not been swept yet.
func (c *TTL[V]) Len() int {
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *TTL[V]) Sweep() int {
	now := c.now()
	removed := 0
	for {
		e := c.expiry.peek()
		if e == nil || now.Before(e.expiresAt) {
			break
		}
		c.remove(e)
		removed++
	}

	c.stats.Evictions += int64(removed)
	c.stats.LastSweep = now
	return removed
}

// Stats returns a copy of the current counters.
func (c *TTL[V]) Stats() Stats {
	return c.stats
}

// HitRate returns the hit rate as a percentage.
func (c *TTL[V]) HitRate() float64 {
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(c.stats.Hits) / float64(total) * 100.0
}

// live returns the entry for key, removing it first if it has expired.
func (c *TTL[V]) live(key string) (*entry[V], bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.remove(e)
		c.stats.Evictions++
		return nil, false
	}
	return e, true
}

func (c *TTL[V]) evictSoonest() {
	if e := c.expiry.peek(); e != nil {
		c.remove(e)
		c.stats.Evictions++
	}
}

func (c *TTL[V]) remove(e *entry[V]) {
	delete(c.entries, e.key)
	if e.index >= 0 {
		c.expiry.removeAt(e.index)
	}
	c.stats.TotalKeys = int64(len(c.entries))
}
