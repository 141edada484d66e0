// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/database"
	"github.com/tomtom215/domfi/internal/history"
	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/models"
)

//nolint:gochecknoinits // quiet logs for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

var (
	testProvenanceUUID = uuid.MustParse("0f8e2a52-3c1d-4b6e-8f7a-9d0c1b2a3e4f")
	testSnapshotTime   = time.Date(2026, 1, 5, 12, 0, 30, 0, time.UTC)
	testImportedAt     = time.Date(2026, 1, 5, 12, 0, 31, 0, time.UTC)
	testSHA256         = bytes.Repeat([]byte{0xab}, 32)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeStore serves canned data and records the arguments it was called with.
type fakeStore struct {
	mu sync.Mutex

	pingErr    error
	provenance *models.Provenance
	blob       *models.Blob
	snapshot   *models.Snapshot
	pricing    *models.PricingResult
	err        error

	lastTS    *time.Time
	lastAsset models.DominanceAsset
	lastBlob  []byte
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) GetProvenance(_ context.Context, id uuid.UUID) (*models.Provenance, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.provenance == nil || s.provenance.UUID != id {
		return nil, database.ErrNotFound
	}
	return s.provenance, nil
}

func (s *fakeStore) GetBlob(_ context.Context, sum []byte) (*models.Blob, error) {
	s.mu.Lock()
	s.lastBlob = sum
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.blob == nil || !bytes.Equal(s.blob.SHA256, sum) {
		return nil, database.ErrNotFound
	}
	return s.blob, nil
}

func (s *fakeStore) FindByTimestamp(_ context.Context, ts *time.Time) (*models.Snapshot, error) {
	s.mu.Lock()
	s.lastTS = ts
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.snapshot == nil {
		return nil, database.ErrNotFound
	}
	return s.snapshot, nil
}

func (s *fakeStore) FindByIDAtTimestamp(_ context.Context, asset models.DominanceAsset, ts *time.Time) (*models.PricingResult, error) {
	s.mu.Lock()
	s.lastTS, s.lastAsset = ts, asset
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.pricing == nil {
		return nil, database.ErrNotFound
	}
	return s.pricing, nil
}

// fakeHistory answers Request with a fixed dataset or error.
type fakeHistory struct {
	dataset *models.Dataset
	err     error
	stats   history.Stats
	ids     []string
}

func (f *fakeHistory) Request(_ context.Context, id string) (*models.Dataset, error) {
	f.ids = append(f.ids, id)
	return f.dataset, f.err
}

func (f *fakeHistory) Stats(context.Context) (history.Stats, error) {
	return f.stats, nil
}

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Meta: models.OriginMetadata{
			RequestedTimestamp: testSnapshotTime,
			ActualTimestamp:    testSnapshotTime,
			ImportedAt:         testImportedAt,
			ProvenanceUUID:     testProvenanceUUID,
			Agent:              "loader_rust",
			BlobSHA256:         testSHA256,
		},
		Records: []models.CoinDominanceRecord{
			{Name: "Bitcoin", ID: "bitcoin", MarketCapUSD: dec("1234567890123.45"), DominancePercentage: dec("52.123456789012345678")},
			{Name: "Ethereum", ID: "ethereum", MarketCapUSD: dec("400000000000"), DominancePercentage: dec("17.5")},
			{Name: "Others", ID: "", MarketCapUSD: dec("900000000000"), DominancePercentage: dec("30.376543210987654322")},
		},
	}
}

// newTestHandler builds the full router over the fakes with a fixed clock.
func newTestHandler(t *testing.T, store *fakeStore, hist HistoryService, cfg *ChiMiddlewareConfig) http.Handler {
	t.Helper()
	h := NewHandler(store, hist, models.DefaultRegistry(), nil, nil)
	h.now = func() time.Time { return testImportedAt }
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
	}
	return NewRouter(h, NewChiMiddleware(cfg)).SetupChi()
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, reason string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "error" {
		t.Errorf("body status = %v, want error", body["status"])
	}
	if body["reason"] != reason {
		t.Errorf("reason = %q, want %q", body["reason"], reason)
	}
}
