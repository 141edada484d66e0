// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/domfi/internal/models"
)

// fakeStore records writes in memory.
type fakeStore struct {
	mu          sync.Mutex
	provenances []models.ProvenanceInput
	entries     map[uuid.UUID][]models.CoinDominanceEntry
	provErr     error
	rowsErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[uuid.UUID][]models.CoinDominanceEntry)}
}

func (s *fakeStore) InsertProvenance(_ context.Context, in models.ProvenanceInput) (models.ProvenanceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provErr != nil {
		return models.ProvenanceID{}, s.provErr
	}
	s.provenances = append(s.provenances, in)
	return models.ProvenanceID{UUID: uuid.New(), ObjectID: int64(len(s.provenances))}, nil
}

func (s *fakeStore) InsertCoinDominance(_ context.Context, _ string, pid models.ProvenanceID, entries []models.CoinDominanceEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rowsErr != nil {
		return 0, s.rowsErr
	}
	s.entries[pid.UUID] = append(s.entries[pid.UUID], entries...)
	return len(entries), nil
}

func (s *fakeStore) provenanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.provenances)
}

func (s *fakeStore) entriesFor(id uuid.UUID) []models.CoinDominanceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []models.SnapshotCommitted
	err    error
}

func (p *fakePublisher) PublishSnapshotCommitted(_ context.Context, ev models.SnapshotCommitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) published() []models.SnapshotCommitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.SnapshotCommitted(nil), p.events...)
}

// upstream is an httptest server that counts hits and records queries.
type upstream struct {
	*httptest.Server
	hits    atomic.Int64
	mu      sync.Mutex
	queries []string
}

func newUpstream(t *testing.T, status int, contentType, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.mu.Lock()
		u.queries = append(u.queries, r.URL.RawQuery)
		u.mu.Unlock()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Upstream", "test")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) recordedQueries() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.queries...)
}

const liveBody = `{
  "data": [
    {"name": "Bitcoin", "id": "bitcoin", "market_cap_usd": 1234567890123.45, "dominance_percentage": 52.123456789012345678},
    {"name": "Ethereum", "id": "ethereum", "market_cap_usd": 400000000000, "dominance_percentage": 17.5},
    {"name": "Others", "id": "", "market_cap_usd": 900000000000, "dominance_percentage": 30.376543210987654322}
  ],
  "timestamp": 1767614430
}`
