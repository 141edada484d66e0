// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package database

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/config"
	"github.com/tomtom215/domfi/internal/models"
)

// The cases below run against every store: in-memory DuckDB in
// database_test.go and Postgres in the integration suite.

const testAgent = "loader_test"

var (
	testImportedAt = time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	bitcoin        = models.NewSymbol("bitcoin", "btc")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func coin(id, name, marketCap, pct string) models.CoinDominanceEntry {
	return models.CoinDominanceEntry{
		ID:                  id,
		Name:                name,
		MarketCapUSD:        dec(marketCap),
		DominancePercentage: dec(pct),
	}
}

func snapshotBody(ts time.Time) []byte {
	return []byte(fmt.Sprintf(`{"data":[],"timestamp":%d}`, ts.Unix()))
}

// seedSnapshot stores a provenance and entries stamped with ts.
func seedSnapshot(t *testing.T, db *DB, agent string, ts time.Time, entries ...models.CoinDominanceEntry) models.ProvenanceID {
	t.Helper()
	ctx := context.Background()

	pid, err := db.InsertProvenance(ctx, models.ProvenanceInput{
		Agent:     agent,
		Timestamp: ts,
		Data:      snapshotBody(ts),
		Mime:      "application/json",
	})
	if err != nil {
		t.Fatalf("InsertProvenance() error = %v", err)
	}

	for i := range entries {
		entries[i].Timestamp = ts
	}
	n, err := db.InsertCoinDominance(ctx, agent, pid, entries)
	if err != nil {
		t.Fatalf("InsertCoinDominance() error = %v", err)
	}
	if n != len(entries) {
		t.Fatalf("InsertCoinDominance() inserted %d, want %d", n, len(entries))
	}
	return pid
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v does not wrap sql.ErrNoRows", err)
	}
}

func jsonField(t *testing.T, doc []byte, key string) string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal(doc, &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", doc, err)
	}
	return m[key]
}

func testProvenance(t *testing.T, db *DB) {
	ctx := context.Background()
	fetched := time.Date(2026, 1, 5, 12, 0, 30, 0, time.UTC)
	body := []byte(`{"data":[{"id":"bitcoin"}],"timestamp":1767614430}`)

	pid, err := db.InsertProvenance(ctx, models.ProvenanceInput{
		Agent:            testAgent,
		Timestamp:        fetched,
		Data:             body,
		Mime:             "application/json",
		RequestMetadata:  []byte(`{"method":"GET"}`),
		ResponseMetadata: []byte(`{"url":"https://example.test/coin_dominance"}`),
	})
	if err != nil {
		t.Fatalf("InsertProvenance() error = %v", err)
	}
	if pid.UUID == uuid.Nil {
		t.Fatal("InsertProvenance() returned nil uuid")
	}

	got, err := db.GetProvenance(ctx, pid.UUID)
	if err != nil {
		t.Fatalf("GetProvenance() error = %v", err)
	}
	sum := sha256.Sum256(body)
	if got.UUID != pid.UUID || got.ObjectID != pid.ObjectID {
		t.Errorf("ids = (%s, %d), want (%s, %d)", got.UUID, got.ObjectID, pid.UUID, pid.ObjectID)
	}
	if got.Agent != testAgent {
		t.Errorf("Agent = %q, want %q", got.Agent, testAgent)
	}
	if !got.Timestamp.Equal(fetched) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, fetched)
	}
	if !bytes.Equal(got.Data, body) {
		t.Errorf("Data = %q, want %q", got.Data, body)
	}
	if !bytes.Equal(got.ObjectSHA256, sum[:]) {
		t.Errorf("ObjectSHA256 = %x, want %x", got.ObjectSHA256, sum)
	}
	if v := jsonField(t, got.RequestMetadata, "method"); v != "GET" {
		t.Errorf("request_metadata.method = %q, want GET", v)
	}
	if v := jsonField(t, got.ResponseMetadata, "url"); v != "https://example.test/coin_dominance" {
		t.Errorf("response_metadata.url = %q", v)
	}

	bare, err := db.InsertProvenance(ctx, models.ProvenanceInput{Agent: testAgent, Timestamp: fetched, Data: []byte("raw")})
	if err != nil {
		t.Fatalf("InsertProvenance() without metadata error = %v", err)
	}
	got, err = db.GetProvenance(ctx, bare.UUID)
	if err != nil {
		t.Fatalf("GetProvenance() error = %v", err)
	}
	if got.RequestMetadata != nil || got.ResponseMetadata != nil {
		t.Errorf("metadata = (%q, %q), want nil", got.RequestMetadata, got.ResponseMetadata)
	}

	_, err = db.GetProvenance(ctx, uuid.New())
	assertNotFound(t, err)
}

// testRepeatedBody stores the same upstream body on consecutive polls after
// the first one is already referenced by coin_dominance rows.
func testRepeatedBody(t *testing.T, db *DB) {
	ctx := context.Background()
	ts := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	first := seedSnapshot(t, db, testAgent, ts, coin("bitcoin", "Bitcoin", "1000", "52.5"))

	for i := 1; i <= 3; i++ {
		pid, err := db.InsertProvenance(ctx, models.ProvenanceInput{
			Agent:     testAgent,
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Data:      snapshotBody(ts),
			Mime:      "application/json",
		})
		if err != nil {
			t.Fatalf("InsertProvenance() poll %d error = %v", i, err)
		}
		if pid.ObjectID != first.ObjectID {
			t.Errorf("poll %d ObjectID = %d, want %d", i, pid.ObjectID, first.ObjectID)
		}
	}

	if _, err := db.GetProvenance(ctx, first.UUID); err != nil {
		t.Errorf("GetProvenance() after repeats error = %v", err)
	}
}

func testBlobDeduplication(t *testing.T, db *DB) {
	ctx := context.Background()
	body := []byte("same bytes")
	ts := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	first, err := db.InsertProvenance(ctx, models.ProvenanceInput{Agent: testAgent, Timestamp: ts, Data: body, Mime: "text/plain"})
	if err != nil {
		t.Fatalf("first InsertProvenance() error = %v", err)
	}
	second, err := db.InsertProvenance(ctx, models.ProvenanceInput{Agent: testAgent, Timestamp: ts.Add(time.Minute), Data: body, Mime: "application/json"})
	if err != nil {
		t.Fatalf("second InsertProvenance() error = %v", err)
	}

	if first.ObjectID != second.ObjectID {
		t.Errorf("ObjectID = %d and %d, want the same object", first.ObjectID, second.ObjectID)
	}
	if first.UUID == second.UUID {
		t.Error("both provenances share a uuid")
	}

	sum := sha256.Sum256(body)
	blob, err := db.GetBlob(ctx, sum[:])
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if blob.ID != first.ObjectID {
		t.Errorf("blob.ID = %d, want %d", blob.ID, first.ObjectID)
	}
	if !bytes.Equal(blob.Data, body) {
		t.Errorf("blob.Data = %q, want %q", blob.Data, body)
	}
	wantMime := "text/plain"
	if db.Driver() == config.DriverPostgres {
		wantMime = "application/json"
	}
	if blob.Mime != wantMime {
		t.Errorf("blob.Mime = %q, want %q", blob.Mime, wantMime)
	}

	missing := sha256.Sum256([]byte("never stored"))
	_, err = db.GetBlob(ctx, missing[:])
	assertNotFound(t, err)
}

func testInsertCoinDominance(t *testing.T, db *DB) {
	ctx := context.Background()
	ts := time.Date(2026, 1, 5, 12, 0, 30, 0, time.UTC)

	pid := seedSnapshot(t, db, testAgent, ts,
		coin("bitcoin", "Bitcoin", "1000", "50"),
		coin("ethereum", "Ethereum", "400", "20"),
		coin("", "Others", "600", "30"),
	)

	again := []models.CoinDominanceEntry{
		coin("bitcoin", "Bitcoin", "1001", "51"),
		coin("ethereum", "Ethereum", "401", "21"),
	}
	for i := range again {
		again[i].Timestamp = ts
	}

	n, err := db.InsertCoinDominance(ctx, testAgent, pid, again)
	if err != nil {
		t.Fatalf("duplicate InsertCoinDominance() error = %v", err)
	}
	if n != 0 {
		t.Errorf("duplicate insert stored %d rows, want 0", n)
	}

	// Same instant from another agent is a separate snapshot.
	n, err = db.InsertCoinDominance(ctx, "loader_other", pid, again)
	if err != nil {
		t.Fatalf("InsertCoinDominance() other agent error = %v", err)
	}
	if n != 2 {
		t.Errorf("other agent stored %d rows, want 2", n)
	}

	// The first write wins.
	snap, err := db.FindByTimestamp(ctx, &ts)
	if err != nil {
		t.Fatalf("FindByTimestamp() error = %v", err)
	}
	if snap.Meta.Agent == testAgent {
		for _, r := range snap.Records {
			if r.ID == "bitcoin" && !r.DominancePercentage.Equal(dec("50")) {
				t.Errorf("bitcoin dominance = %s, want 50", r.DominancePercentage)
			}
		}
	}
}

func testFindByTimestamp(t *testing.T, db *DB) {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 5, 12, 0, 30, 0, time.UTC)
	t1 := time.Date(2026, 1, 5, 12, 5, 10, 0, time.UTC)
	t2 := time.Date(2026, 1, 5, 12, 10, 0, 0, time.UTC)

	// Market caps sort differently as text and as numbers.
	pid0 := seedSnapshot(t, db, testAgent, t0,
		coin("bitcoin", "Bitcoin", "9", "40"),
		coin("", "Others", "500", "30"),
		coin("ethereum", "Ethereum", "100", "20"),
		coin("tether", "Tether", "25", "10"),
	)
	seedSnapshot(t, db, testAgent, t1,
		coin("bitcoin", "Bitcoin", "10", "41"),
		coin("ethereum", "Ethereum", "5", "59"),
	)
	pid2 := seedSnapshot(t, db, testAgent, t2,
		coin("bitcoin", "Bitcoin", "11", "42"),
	)

	t.Run("latest", func(t *testing.T) {
		snap, err := db.FindByTimestamp(ctx, nil)
		if err != nil {
			t.Fatalf("FindByTimestamp(nil) error = %v", err)
		}
		if !snap.Meta.ActualTimestamp.Equal(t2) || !snap.Meta.RequestedTimestamp.Equal(t2) {
			t.Errorf("timestamps = (%v, %v), want both %v", snap.Meta.RequestedTimestamp, snap.Meta.ActualTimestamp, t2)
		}
		if snap.Meta.ProvenanceUUID != pid2.UUID {
			t.Errorf("ProvenanceUUID = %s, want %s", snap.Meta.ProvenanceUUID, pid2.UUID)
		}
	})

	t.Run("ordering and meta", func(t *testing.T) {
		requested := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
		snap, err := db.FindByTimestamp(ctx, &requested)
		if err != nil {
			t.Fatalf("FindByTimestamp() error = %v", err)
		}

		var ids []string
		for _, r := range snap.Records {
			ids = append(ids, r.PriceKey())
		}
		want := []string{"ethereum", "tether", "bitcoin", "others"}
		if fmt.Sprint(ids) != fmt.Sprint(want) {
			t.Errorf("order = %v, want %v", ids, want)
		}

		sum := sha256.Sum256(snapshotBody(t0))
		m := snap.Meta
		if !m.RequestedTimestamp.Equal(requested) {
			t.Errorf("RequestedTimestamp = %v, want %v", m.RequestedTimestamp, requested)
		}
		if !m.ActualTimestamp.Equal(t0) {
			t.Errorf("ActualTimestamp = %v, want %v", m.ActualTimestamp, t0)
		}
		if !m.ImportedAt.Equal(testImportedAt) {
			t.Errorf("ImportedAt = %v, want %v", m.ImportedAt, testImportedAt)
		}
		if m.ProvenanceUUID != pid0.UUID {
			t.Errorf("ProvenanceUUID = %s, want %s", m.ProvenanceUUID, pid0.UUID)
		}
		if !bytes.Equal(m.BlobSHA256, sum[:]) {
			t.Errorf("BlobSHA256 = %x, want %x", m.BlobSHA256, sum)
		}
		if m.Agent != testAgent {
			t.Errorf("Agent = %q, want %q", m.Agent, testAgent)
		}
	})

	tests := []struct {
		name      string
		requested time.Time
		want      time.Time
		notFound  bool
	}{
		{"seconds are truncated", time.Date(2026, 1, 5, 12, 5, 45, 0, time.UTC), t1, false},
		{"next minute boundary is included", time.Date(2026, 1, 5, 12, 9, 30, 0, time.UTC), t2, false},
		{"empty minute", time.Date(2026, 1, 5, 12, 3, 0, 0, time.UTC), time.Time{}, true},
		{"before any data", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := db.FindByTimestamp(ctx, &tt.requested)
			if tt.notFound {
				assertNotFound(t, err)
				return
			}
			if err != nil {
				t.Fatalf("FindByTimestamp() error = %v", err)
			}
			if !snap.Meta.ActualTimestamp.Equal(tt.want) {
				t.Errorf("ActualTimestamp = %v, want %v", snap.Meta.ActualTimestamp, tt.want)
			}
		})
	}
}

func testFindByIDAtTimestamp(t *testing.T, db *DB) {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 5, 12, 0, 30, 0, time.UTC)
	t1 := time.Date(2026, 1, 5, 12, 1, 30, 0, time.UTC)

	pid0 := seedSnapshot(t, db, testAgent, t0,
		coin("bitcoin", "Bitcoin", "1000", "52.5"),
		coin("", "Others", "500", "47.5"),
	)
	seedSnapshot(t, db, testAgent, t1,
		coin("bitcoin", "Bitcoin", "1000", "53.25"),
	)

	altdom := models.NewDominanceAsset(bitcoin, models.AltDom)
	res, err := db.FindByIDAtTimestamp(ctx, altdom, &t0)
	if err != nil {
		t.Fatalf("FindByIDAtTimestamp() error = %v", err)
	}
	if res.CoinID != "bitcoin^altdom" {
		t.Errorf("CoinID = %q, want bitcoin^altdom", res.CoinID)
	}
	if res.CoinSymbol != altdom.TickerDisplay() {
		t.Errorf("CoinSymbol = %q, want %q", res.CoinSymbol, altdom.TickerDisplay())
	}
	if !res.Percentage.Equal(dec("52.5")) {
		t.Errorf("Percentage = %s, want the stored 52.5", res.Percentage)
	}
	if res.Meta.ProvenanceUUID != pid0.UUID || !res.Meta.ActualTimestamp.Equal(t0) {
		t.Errorf("Meta = %+v, want uuid %s at %v", res.Meta, pid0.UUID, t0)
	}

	latest, err := db.FindByIDAtTimestamp(ctx, models.NewDominanceAsset(bitcoin, models.Dom), nil)
	if err != nil {
		t.Fatalf("FindByIDAtTimestamp(nil) error = %v", err)
	}
	if !latest.Percentage.Equal(dec("53.25")) || !latest.Meta.ActualTimestamp.Equal(t1) {
		t.Errorf("latest = %s at %v, want 53.25 at %v", latest.Percentage, latest.Meta.ActualTimestamp, t1)
	}

	doge := models.NewDominanceAsset(models.NewSymbol("dogecoin", "doge"), models.Dom)
	_, err = db.FindByIDAtTimestamp(ctx, doge, &t0)
	assertNotFound(t, err)
}

func testFindHistory(t *testing.T, db *DB) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 10, 30, 20, 0, time.UTC)
	at := func(d, h, m, s int) time.Time { return time.Date(2026, 1, d, h, m, s, 0, time.UTC) }

	seedSnapshot(t, db, testAgent, now.Add(-73*time.Hour), coin("bitcoin", "Bitcoin", "1", "10"))
	windowStart := seedSnapshot(t, db, testAgent, now.Add(-HistoryWindow), coin("bitcoin", "Bitcoin", "1", "11"))
	first := seedSnapshot(t, db, testAgent, at(5, 10, 0, 10), coin("bitcoin", "Bitcoin", "1", "41"))
	seedSnapshot(t, db, testAgent, at(5, 10, 0, 40), coin("bitcoin", "Bitcoin", "1", "42"))
	seedSnapshot(t, db, testAgent, at(5, 10, 15, 0), coin("ethereum", "Ethereum", "1", "18"))
	seedSnapshot(t, db, testAgent, at(5, 10, 29, 59), coin("bitcoin", "Bitcoin", "1", "43"))
	seedSnapshot(t, db, testAgent, at(5, 10, 30, 5), coin("bitcoin", "Bitcoin", "1", "44"))

	asset := models.NewDominanceAsset(bitcoin, models.Dom)
	rows, err := db.FindHistory(ctx, asset, now)
	if err != nil {
		t.Fatalf("FindHistory() error = %v", err)
	}

	want := []struct {
		tick, ts time.Time
		value    string
	}{
		{at(2, 10, 30, 0), at(2, 10, 30, 20), "11"},
		{at(5, 10, 0, 0), at(5, 10, 0, 10), "41"},
		{at(5, 10, 29, 0), at(5, 10, 29, 59), "43"},
	}
	if len(rows) != len(want) {
		t.Fatalf("FindHistory() returned %d rows, want %d: %+v", len(rows), len(want), rows)
	}
	for i, w := range want {
		r := rows[i]
		if !r.Tick.Equal(w.tick) || !r.Timestamp.Equal(w.ts) || !r.Value.Equal(dec(w.value)) {
			t.Errorf("row %d = (%v, %v, %s), want (%v, %v, %s)", i, r.Tick, r.Timestamp, r.Value, w.tick, w.ts, w.value)
		}
	}
	if rows[0].ProvenanceUUID != windowStart.UUID || rows[1].ProvenanceUUID != first.UUID {
		t.Error("history rows do not carry the provenance of the earliest snapshot in each minute")
	}

	fetcher := HistoryFetcher{DB: db, Now: func() time.Time { return now }}
	viaFetcher, err := fetcher.FetchHistory(ctx, asset.Opposite())
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(viaFetcher) != len(rows) {
		t.Errorf("FetchHistory() returned %d rows, want %d", len(viaFetcher), len(rows))
	}
}

func testEmptyStoreNotFound(t *testing.T, db *DB) {
	ctx := context.Background()

	_, err := db.LatestTimestampAgent(ctx)
	assertNotFound(t, err)

	_, err = db.FindByTimestamp(ctx, nil)
	assertNotFound(t, err)

	rows, err := db.FindHistory(ctx, models.NewDominanceAsset(bitcoin, models.Dom), time.Now())
	if err != nil {
		t.Fatalf("FindHistory() on empty store error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("FindHistory() on empty store returned %d rows", len(rows))
	}
}

func testDecimalPrecisionKept(t *testing.T, db *DB) {
	ctx := context.Background()
	ts := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	marketCap := "1234567890123456789.123456"
	pct := "12.345678901234567890123"

	seedSnapshot(t, db, testAgent, ts, coin("bitcoin", "Bitcoin", marketCap, pct))

	snap, err := db.FindByTimestamp(ctx, &ts)
	if err != nil {
		t.Fatalf("FindByTimestamp() error = %v", err)
	}
	r := snap.Records[0]
	if !r.MarketCapUSD.Equal(dec(marketCap)) {
		t.Errorf("MarketCapUSD = %s, want %s", r.MarketCapUSD, marketCap)
	}
	if !r.DominancePercentage.Equal(dec(pct)) {
		t.Errorf("DominancePercentage = %s, want %s", r.DominancePercentage, pct)
	}
}

func testRecordCounts(t *testing.T, db *DB) {
	seedSnapshot(t, db, testAgent, time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		coin("bitcoin", "Bitcoin", "2", "60"),
		coin("", "Others", "1", "40"),
	)

	counts, err := db.RecordCounts(context.Background())
	if err != nil {
		t.Fatalf("RecordCounts() error = %v", err)
	}
	want := map[string]int64{"object_storage": 1, "provenance": 1, "coin_dominance": 2}
	for table, n := range want {
		if counts[table] != n {
			t.Errorf("%s count = %d, want %d", table, counts[table], n)
		}
	}
}
