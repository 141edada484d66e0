// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package loader

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/models"
)

// dominanceSnapshot is the live coin_dominance document.
type dominanceSnapshot struct {
	Data      []dominanceItem `json:"data"`
	Timestamp json.Number     `json:"timestamp"`
}

type dominanceItem struct {
	Name                string          `json:"name"`
	ID                  string          `json:"id"`
	MarketCapUSD        decimal.Decimal `json:"market_cap_usd"`
	DominancePercentage decimal.Decimal `json:"dominance_percentage"`
}

// decodeSnapshot parses a coin_dominance body into insertable entries.
func decodeSnapshot(body []byte) ([]models.CoinDominanceEntry, time.Time, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var snap dominanceSnapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Timestamp == "" {
		return nil, time.Time{}, fmt.Errorf("snapshot has no timestamp")
	}

	ts, err := parseUnixSeconds(snap.Timestamp)
	if err != nil {
		return nil, time.Time{}, err
	}

	entries := make([]models.CoinDominanceEntry, len(snap.Data))
	for i, item := range snap.Data {
		entries[i] = models.CoinDominanceEntry{
			Name:                item.Name,
			ID:                  item.ID,
			MarketCapUSD:        item.MarketCapUSD,
			DominancePercentage: item.DominancePercentage,
			Timestamp:           ts,
		}
	}
	return entries, ts, nil
}

// parseUnixSeconds accepts integer or fractional seconds.
func parseUnixSeconds(n json.Number) (time.Time, error) {
	if secs, err := n.Int64(); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", n.String())
	}
	secs, frac := math.Modf(f)
	return time.Unix(int64(secs), int64(frac*1e9)).UTC(), nil
}
