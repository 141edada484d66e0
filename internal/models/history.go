// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryRow is one minute bucket of stored dominance for a coin, as read
// from the database before any asset transform.
type HistoryRow struct {
	Tick           time.Time
	Timestamp      time.Time
	ProvenanceUUID uuid.UUID
	Value          decimal.Decimal
}

// HistoryEntry is a HistoryRow transformed for a specific asset.
type HistoryEntry struct {
	Tick              time.Time
	TimestampOriginal time.Time
	ProvenanceUUID    uuid.UUID
	Price             decimal.Decimal
	PriceOriginal     decimal.Decimal

	priceText string
}

type historyEntryJSON struct {
	Tick              int64       `json:"tick"`
	TimestampOriginal int64       `json:"timestamp_original"`
	ProvenanceUUID    uuid.UUID   `json:"provenance_uuid"`
	Price             json.Number `json:"price"`
	PriceOriginal     json.Number `json:"price_original"`
}

// MarshalJSON writes timestamps as unix seconds and decimals as exact JSON numbers.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyEntryJSON{
		Tick:              e.Tick.Unix(),
		TimestampOriginal: e.TimestampOriginal.Unix(),
		ProvenanceUUID:    e.ProvenanceUUID,
		Price:             json.Number(e.PriceText()),
		PriceOriginal:     Number(e.PriceOriginal),
	})
}

// PriceText returns the price formatted at the asset's display precision.
func (e HistoryEntry) PriceText() string {
	if e.priceText != "" {
		return e.priceText
	}
	return e.Price.String()
}

// Dataset is the trailing dominance history of one asset. A Dataset is
// immutable once built; the cache and any number of in-flight responses
// share the same pointer.
type Dataset struct {
	Asset AssetWithMetadata `json:"asset"`
	Rows  []HistoryEntry    `json:"rows"`
}

// BuildDataset transforms raw rows into display entries for asset.
func BuildDataset(asset AssetWithMetadata, rows []HistoryRow) *Dataset {
	entries := make([]HistoryEntry, len(rows))
	for i, r := range rows {
		price := asset.ValueOf(r.Value)
		entries[i] = HistoryEntry{
			Tick:              r.Tick.UTC(),
			TimestampOriginal: r.Timestamp.UTC(),
			ProvenanceUUID:    r.ProvenanceUUID,
			Price:             price,
			PriceOriginal:     asset.RawValueOf(r.Value),
			priceText:         asset.Metadata.Rounding.Format(price),
		}
	}
	return &Dataset{Asset: asset, Rows: entries}
}

// SlimEntry is a [tick, price] pair.
type SlimEntry struct {
	Tick  time.Time
	Price string
}

// MarshalJSON writes the pair as a two element array.
func (e SlimEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{e.Tick.Unix(), json.Number(e.Price)})
}

// SlimDataset is the compact projection of a Dataset.
type SlimDataset struct {
	Asset AssetWithMetadata `json:"asset"`
	Rows  []SlimEntry       `json:"rows"`
}

// Slim projects the dataset to tick and rounded price only.
func (d *Dataset) Slim() SlimDataset {
	rows := make([]SlimEntry, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = SlimEntry{Tick: r.Tick, Price: r.PriceText()}
	}
	return SlimDataset{Asset: d.Asset, Rows: rows}
}

// Number renders a decimal as an exact JSON number.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
