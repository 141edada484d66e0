// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package cache

import (
	"time"
)

// entry is a cached value indexed by its expiry in the min-heap.
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	index     int // position in the heap array, for O(log n) fixes
}

// expiryHeap is a min-heap of entries ordered by expiry, soonest first.
// It is not safe for concurrent use; TTL owns it.
type expiryHeap[V any] []*entry[V]

func (h *expiryHeap[V]) push(e *entry[V]) {
	e.index = len(*h)
	*h = append(*h, e)
	h.bubbleUp(e.index)
}

// peek returns the entry expiring soonest, or nil.
func (h expiryHeap[V]) peek() *entry[V] {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

func (h *expiryHeap[V]) pop() *entry[V] {
	if len(*h) == 0 {
		return nil
	}
	return h.removeAt(0)
}

func (h *expiryHeap[V]) removeAt(i int) *entry[V] {
	old := *h
	n := len(old) - 1
	e := old[i]

	if i == n {
		*h = old[:n]
		e.index = -1
		return e
	}

	old[i] = old[n]
	old[i].index = i
	*h = old[:n]
	h.fix(i)

	e.index = -1
	return e
}

// fix restores heap order after the expiry at index i changed.
func (h expiryHeap[V]) fix(i int) {
	if h.bubbleUp(i) {
		return
	}
	h.bubbleDown(i)
}

func (h expiryHeap[V]) bubbleUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !h[i].expiresAt.Before(h[parent].expiresAt) {
			break
		}
		h.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (h expiryHeap[V]) bubbleDown(i int) {
	n := len(h)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && h[left].expiresAt.Before(h[smallest].expiresAt) {
			smallest = left
		}
		if right < n && h[right].expiresAt.Before(h[smallest].expiresAt) {
			smallest = right
		}
		if smallest == i {
			return
		}

		h.swap(i, smallest)
		i = smallest
	}
}

func (h expiryHeap[V]) swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
