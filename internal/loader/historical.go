// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package loader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/config"
	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/models"
)

// HistoricalSymbols maps chart series names to coin ids. Series not listed
// are skipped.
var HistoricalSymbols = map[string]string{
	"Others": "others-coingecko-global",
	"XLM":    "stellar",
	"XMR":    "monero",
	"NEO":    "neo",
	"EOS":    "eos",
	"BSV":    "bitcoin-cash-sv",
	"LINK":   "chainlink",
	"BNB":    "binancecoin",
	"BCH":    "bitcoin-cash",
	"DOT":    "polkadot",
	"LTC":    "litecoin",
	"XRP":    "ripple",
	"USDT":   "tether",
	"ETH":    "ethereum",
	"BTC":    "bitcoin",
}

type historicalChart struct {
	Series []historicalSeries `json:"series_data_array"`
}

type historicalSeries struct {
	Name string            `json:"name"`
	Data []historicalPoint `json:"data"`
}

// historicalPoint is a [unix_ms, value|null] pair.
type historicalPoint struct {
	At    time.Time
	Value decimal.NullDecimal
}

func (p *historicalPoint) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [timestamp, value], got %d elements", len(pair))
	}

	var ms json.Number
	dec := json.NewDecoder(bytes.NewReader(pair[0]))
	dec.UseNumber()
	if err := dec.Decode(&ms); err != nil {
		return fmt.Errorf("invalid point timestamp %s: %w", pair[0], err)
	}
	millis, err := ms.Int64()
	if err != nil {
		f, ferr := ms.Float64()
		if ferr != nil {
			return fmt.Errorf("invalid point timestamp %s: %w", pair[0], err)
		}
		millis = int64(f)
	}
	p.At = time.UnixMilli(millis).UTC()

	return p.Value.UnmarshalJSON(pair[1])
}

// ImportResult summarizes one historical import.
type ImportResult struct {
	Provenance models.ProvenanceID
	Series     int
	Skipped    []string
	Rows       int
	Inserted   int
}

// Importer performs the one-shot backfill from the market dominance chart.
type Importer struct {
	cfg    config.ImporterConfig
	client *Client
	store  Store
}

// NewImporter creates an importer writing to store.
func NewImporter(cfg config.ImporterConfig, store Store) *Importer {
	return &Importer{
		cfg: cfg,
		client: NewClient(ClientConfig{
			Name:    "coingecko-historical",
			Timeout: cfg.Timeout,
		}),
		store: store,
	}
}

// Run fetches the chart, stores its provenance and inserts every known
// series point. Existing rows are left untouched.
func (i *Importer) Run(ctx context.Context) (*ImportResult, error) {
	f, err := i.client.Fetch(ctx, i.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	prov, err := f.ProvenanceInput(i.cfg.AgentName)
	if err != nil {
		return nil, err
	}
	pid, err := i.store.InsertProvenance(ctx, prov)
	if err != nil {
		return nil, fmt.Errorf("failed to store provenance: %w", err)
	}

	entries, res, err := decodeHistorical(f.Body)
	if err != nil {
		return nil, fmt.Errorf("provenance %s: %w", pid, err)
	}
	res.Provenance = pid

	for _, name := range res.Skipped {
		logging.Warn().Str("series", name).Msg("Skipping unknown series")
	}

	res.Inserted, err = i.store.InsertCoinDominance(ctx, i.cfg.AgentName, pid, entries)
	if err != nil {
		return nil, fmt.Errorf("provenance %s: %w", pid, err)
	}

	logging.Info().
		Str("provenance", pid.UUID.String()).
		Int("series", res.Series).
		Int("rows", res.Rows).
		Int("inserted", res.Inserted).
		Msg("Committed historical snapshot")

	return res, nil
}

// decodeHistorical flattens the chart into entries. Null points are dropped.
func decodeHistorical(body []byte) ([]models.CoinDominanceEntry, *ImportResult, error) {
	var chart historicalChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, nil, fmt.Errorf("failed to decode chart: %w", err)
	}

	res := &ImportResult{}
	var entries []models.CoinDominanceEntry
	for _, s := range chart.Series {
		id, ok := HistoricalSymbols[s.Name]
		if !ok {
			res.Skipped = append(res.Skipped, s.Name)
			continue
		}
		res.Series++

		for _, p := range s.Data {
			if !p.Value.Valid {
				continue
			}
			entries = append(entries, models.CoinDominanceEntry{
				Name:                s.Name,
				ID:                  id,
				MarketCapUSD:        decimal.Zero,
				DominancePercentage: p.Value.Decimal,
				Timestamp:           p.At,
			})
		}
	}
	res.Rows = len(entries)
	return entries, res, nil
}
