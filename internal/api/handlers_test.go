// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package api

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/domfi/internal/history"
	"github.com/tomtom215/domfi/internal/models"
)

func TestPing(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeStore{}, &fakeHistory{}, nil)
	rec := doGet(t, h, "/api/v0/ping")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "success" {
		t.Errorf("status = %v, want success", body["status"])
	}
	if got := int64(body["timestamp"].(float64)); got != testImportedAt.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", got, testImportedAt.UnixMilli())
	}
}

func TestProvenance(t *testing.T) {
	t.Parallel()

	store := &fakeStore{provenance: &models.Provenance{
		UUID:             testProvenanceUUID,
		Agent:            "loader_rust",
		Timestamp:        testImportedAt,
		ObjectSHA256:     testSHA256,
		Data:             []byte(`{"data":[]}`),
		RequestMetadata:  []byte(`{"method":"GET"}`),
		ResponseMetadata: []byte(`{"status":200}`),
	}}
	h := newTestHandler(t, store, &fakeHistory{}, nil)

	t.Run("found", func(t *testing.T) {
		rec := doGet(t, h, "/api/v0/provenance/"+testProvenanceUUID.String())
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		for _, want := range []string{
			`"uuid":"` + testProvenanceUUID.String() + `"`,
			`"agent":"loader_rust"`,
			`"sha256":"` + hex.EncodeToString(testSHA256) + `"`,
			`"request_metadata":{"method":"GET"}`,
		} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %s: %s", want, body)
			}
		}
	})

	t.Run("uppercase uuid", func(t *testing.T) {
		rec := doGet(t, h, "/api/v0/provenance/"+strings.ToUpper(testProvenanceUUID.String()))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid uuid", func(t *testing.T) {
		rec := doGet(t, h, "/api/v0/provenance/not-a-uuid")
		assertError(t, rec, http.StatusBadRequest, "Invalid UUID: not-a-uuid")
	})

	t.Run("unknown", func(t *testing.T) {
		rec := doGet(t, h, "/api/v0/provenance/"+uuid.NewString())
		assertError(t, rec, http.StatusNotFound, reasonNotFound)
	})
}

func TestBlob(t *testing.T) {
	t.Parallel()

	sum := hex.EncodeToString(testSHA256)

	t.Run("with mime", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{blob: &models.Blob{ID: 1, SHA256: testSHA256, Data: []byte(`{"a":1}`), Mime: "application/json"}}
		rec := doGet(t, newTestHandler(t, store, nil, nil), "/api/v0/blob/"+sum)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		if rec.Body.String() != `{"a":1}` {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("default mime", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{blob: &models.Blob{ID: 1, SHA256: testSHA256, Data: []byte{0, 1, 2}}}
		rec := doGet(t, newTestHandler(t, store, nil, nil), "/api/v0/blob/"+strings.ToUpper(sum))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/octet-stream" {
			t.Errorf("Content-Type = %q, want application/octet-stream", got)
		}
	})

	t.Run("invalid hash", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{}, nil, nil), "/api/v0/blob/abc")
		assertError(t, rec, http.StatusBadRequest, "Invalid SHA256 hash: abc")
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{}, nil, nil), "/api/v0/blob/"+strings.Repeat("0", 64))
		assertError(t, rec, http.StatusNotFound, reasonNotFound)
	})
}

func TestCoinDominance(t *testing.T) {
	t.Parallel()

	store := &fakeStore{snapshot: testSnapshot()}
	h := newTestHandler(t, store, nil, nil)

	rec := doGet(t, h, "/api/v0/coingecko/coin_dominance?timestamp=1767614400")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{
		`"dominance_percentage":52.123456789012345678`,
		`"market_cap_usd":1234567890123.45`,
		`"price_identifier":52.12`,
		`"price_identifier":17.50`,
		`"timestamp":1767614430`,
		`"imported_at_timestamp":1767614431000`,
		`"actual_timestamp":1767614430000`,
		`"blob_sha256":"` + hex.EncodeToString(testSHA256) + `"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
	if strings.Index(body, `"name":"Others"`) < strings.Index(body, `"name":"Ethereum"`) {
		t.Error("Others should be listed last")
	}

	store.mu.Lock()
	ts := store.lastTS
	store.mu.Unlock()
	if ts == nil || !ts.Equal(time.Unix(1767614400, 0)) {
		t.Errorf("store timestamp = %v, want 1767614400", ts)
	}
}

func TestCoinDominance_Latest(t *testing.T) {
	t.Parallel()

	store := &fakeStore{snapshot: testSnapshot()}
	rec := doGet(t, newTestHandler(t, store, nil, nil), "/api/v0/coingecko/coin_dominance")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastTS != nil {
		t.Errorf("store timestamp = %v, want nil for newest snapshot", store.lastTS)
	}
}

func TestCoinDominance_Errors(t *testing.T) {
	t.Parallel()

	t.Run("bad timestamp", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{}, nil, nil), "/api/v0/coingecko/coin_dominance?timestamp=abc")
		assertError(t, rec, http.StatusBadRequest, "Invalid timestamp: abc")
	})

	t.Run("no snapshot", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{}, nil, nil), "/api/v0/coingecko/coin_dominance")
		assertError(t, rec, http.StatusNotFound, reasonNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{err: errors.New("connection refused")}
		rec := doGet(t, newTestHandler(t, store, nil, nil), "/api/v0/coingecko/coin_dominance")
		assertError(t, rec, http.StatusInternalServerError, reasonDatabaseError)
	})
}

func TestPrices(t *testing.T) {
	t.Parallel()

	rec := doGet(t, newTestHandler(t, &fakeStore{snapshot: testSnapshot()}, nil, nil), "/api/v0/price")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	want := `"data":{"bitcoin":52.12,"ethereum":17.50,"others":30.38}`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("body = %s, want it to contain %s", rec.Body.String(), want)
	}
	if strings.Contains(rec.Body.String(), "imported_at_timestamp") {
		t.Error("price meta should be the slim form")
	}
}

func TestPriceByID(t *testing.T) {
	t.Parallel()

	pricing := &models.PricingResult{
		Meta:       testSnapshot().Meta.Slim(),
		CoinID:     "bitcoin",
		CoinSymbol: "btc",
		Percentage: dec("52.123456789012345678"),
	}

	tests := []struct {
		name      string
		id        string
		wantPrice string
	}{
		{"btcdom", "btcdom", `"price":52.12`},
		{"altdom", "altdom", `"price":47.88`},
		{"case insensitive", "BTCDOM", `"price":52.12`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{pricing: pricing}
			rec := doGet(t, newTestHandler(t, store, nil, nil), "/api/v0/price/"+tt.id+"?timestamp=1767614400")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
			body := rec.Body.String()
			for _, want := range []string{tt.wantPrice, `"price_original":52.123456789012345678`, `"coin_id":"bitcoin"`} {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %s: %s", want, body)
				}
			}
			if store.lastAsset.Underlying.ID != "bitcoin" {
				t.Errorf("store asset = %+v, want bitcoin underlying", store.lastAsset)
			}
		})
	}

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{pricing: pricing}, nil, nil), "/api/v0/price/dogedom")
		assertError(t, rec, http.StatusBadRequest, history.ErrCoinUnknownOrNotAllowed.Error())
	})
}

func testDataset() *models.Dataset {
	asset, _ := models.DefaultRegistry().Lookup("btcdom")
	tick := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	return models.BuildDataset(asset, []models.HistoryRow{
		{Tick: tick, Timestamp: tick.Add(12 * time.Second), ProvenanceUUID: testProvenanceUUID, Value: dec("52.105")},
		{Tick: tick.Add(time.Minute), Timestamp: tick.Add(70 * time.Second), ProvenanceUUID: testProvenanceUUID, Value: dec("52.1")},
	})
}

func TestHistory(t *testing.T) {
	t.Parallel()

	t.Run("full", func(t *testing.T) {
		t.Parallel()
		hist := &fakeHistory{dataset: testDataset()}
		rec := doGet(t, newTestHandler(t, &fakeStore{}, hist, nil), "/api/v0/history/btcdom")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		for _, want := range []string{`"price":52.11`, `"price_original":52.105`, `"price":52.10`, `"tick":1767610800`} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %s: %s", want, body)
			}
		}
		if len(hist.ids) != 1 || hist.ids[0] != "btcdom" {
			t.Errorf("history ids = %v, want [btcdom]", hist.ids)
		}
	})

	t.Run("slim", func(t *testing.T) {
		t.Parallel()
		hist := &fakeHistory{dataset: testDataset()}
		rec := doGet(t, newTestHandler(t, &fakeStore{}, hist, nil), "/api/v0/history/btcdom?slim=true")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"rows":[[1767610800,52.11],[1767610860,52.10]]`) {
			t.Errorf("slim body = %s", rec.Body.String())
		}
	})

	t.Run("invalid slim flag", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{}, &fakeHistory{}, nil), "/api/v0/history/btcdom?slim=maybe")
		assertError(t, rec, http.StatusBadRequest, "Invalid boolean: maybe")
	})

	errTests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"unknown coin", history.ErrCoinUnknownOrNotAllowed, http.StatusBadRequest, "Unknown instrument or not allowed."},
		{"db error", history.ErrDBError, http.StatusInternalServerError, "Failed to fetch coin dominance history."},
		{"send failure", &history.TransportError{Op: history.OpSend, Err: history.ErrStopped}, http.StatusInternalServerError, "Failed to communicate with interval service"},
		{"receive failure", &history.TransportError{Op: history.OpReceive, Err: history.ErrStopped}, http.StatusInternalServerError, "Failed to receive response from interval service"},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doGet(t, newTestHandler(t, &fakeStore{}, &fakeHistory{err: tt.err}, nil), "/api/v0/history/xyz")
			assertError(t, rec, tt.status, tt.reason)
		})
	}

	t.Run("no service", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(&fakeStore{}, nil, models.DefaultRegistry(), nil, nil)
		cfg := DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
		rec := doGet(t, NewRouter(h, NewChiMiddleware(cfg)).SetupChi(), "/api/v0/history/btcdom")
		assertError(t, rec, http.StatusInternalServerError, "Failed to locate the service from the server context.")
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{pingErr: errors.New("down")}, nil, nil), "/api/v0/health/live")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		hist := &fakeHistory{stats: history.Stats{Entries: 3, ActiveMonitors: 2}}
		rec := doGet(t, newTestHandler(t, &fakeStore{}, hist, nil), "/api/v0/health/ready")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["database"] != true {
			t.Errorf("database = %v, want true", body["database"])
		}
		if body["active_monitors"].(float64) != 2 || body["cached_datasets"].(float64) != 3 {
			t.Errorf("stats = %v", body)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, newTestHandler(t, &fakeStore{pingErr: errors.New("down")}, nil, nil), "/api/v0/health/ready")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if body := decodeBody(t, rec); body["status"] != "error" {
			t.Errorf("status = %v, want error", body["status"])
		}
	})
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	if originChecker(nil) != nil || originChecker([]string{"*"}) != nil {
		t.Fatal("empty or wildcard origins should allow all")
	}

	check := originChecker([]string{"https://app.example.com"})
	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	if !check(req) {
		t.Error("request without Origin should pass")
	}
	req.Header.Set("Origin", "https://app.example.com")
	if !check(req) {
		t.Error("listed origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Error("unlisted origin accepted")
	}
}
