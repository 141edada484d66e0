// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"bytes"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the body of every failed API request.
//
// Example:
//
//	{"status": "error", "reason": "Unable to find data origin requested"}
type ErrorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// NewErrorResponse builds an ErrorResponse.
func NewErrorResponse(reason string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Reason: reason}
}

// PingResponse reports liveness with the server time in milliseconds.
type PingResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// ProvenanceResponse exposes a stored provenance record. Data is base64
// encoded by encoding/json rules for []byte; SHA256 is hex.
type ProvenanceResponse struct {
	UUID             uuid.UUID       `json:"uuid"`
	Agent            string          `json:"agent"`
	ImportedAt       time.Time       `json:"imported_at"`
	Data             []byte          `json:"data"`
	SHA256           string          `json:"sha256"`
	RequestMetadata  json.RawMessage `json:"request_metadata"`
	ResponseMetadata json.RawMessage `json:"response_metadata"`
}

// NewProvenanceResponse converts a stored record.
func NewProvenanceResponse(p *Provenance) ProvenanceResponse {
	return ProvenanceResponse{
		UUID:             p.UUID,
		Agent:            p.Agent,
		ImportedAt:       p.Timestamp.UTC(),
		Data:             p.Data,
		SHA256:           hex.EncodeToString(p.ObjectSHA256),
		RequestMetadata:  rawOrNull(p.RequestMetadata),
		ResponseMetadata: rawOrNull(p.ResponseMetadata),
	}
}

func rawOrNull(b []byte) json.RawMessage {
	if len(bytes.TrimSpace(b)) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

// CoinDominanceElement is one coin in a snapshot response.
type CoinDominanceElement struct {
	Name                string      `json:"name"`
	ID                  string      `json:"id"`
	MarketCapUSD        json.Number `json:"market_cap_usd"`
	DominancePercentage json.Number `json:"dominance_percentage"`
	PriceIdentifier     json.Number `json:"price_identifier"`
}

// CoinDominanceMeta is the provenance block of a snapshot response.
// Timestamps are unix milliseconds.
type CoinDominanceMeta struct {
	ProvenanceUUID      uuid.UUID `json:"provenance_uuid"`
	BlobSHA256          string    `json:"blob_sha256"`
	ImportedAtTimestamp int64     `json:"imported_at_timestamp"`
	RequestedTimestamp  int64     `json:"requested_timestamp"`
	ActualTimestamp     int64     `json:"actual_timestamp"`
}

// NewCoinDominanceMeta converts origin metadata.
func NewCoinDominanceMeta(m OriginMetadata) CoinDominanceMeta {
	return CoinDominanceMeta{
		ProvenanceUUID:      m.ProvenanceUUID,
		BlobSHA256:          hex.EncodeToString(m.BlobSHA256),
		ImportedAtTimestamp: m.ImportedAt.UnixMilli(),
		RequestedTimestamp:  m.RequestedTimestamp.UnixMilli(),
		ActualTimestamp:     m.ActualTimestamp.UnixMilli(),
	}
}

// CoinDominanceResponse is a full snapshot. Timestamp is unix seconds.
type CoinDominanceResponse struct {
	Status    string                 `json:"status"`
	Data      []CoinDominanceElement `json:"data"`
	Timestamp int64                  `json:"timestamp"`
	Meta      CoinDominanceMeta      `json:"meta"`
}

// PricesMeta is the provenance block of price responses.
type PricesMeta struct {
	ProvenanceUUID     uuid.UUID `json:"provenance_uuid"`
	RequestedTimestamp int64     `json:"requested_timestamp"`
	ActualTimestamp    int64     `json:"actual_timestamp"`
}

// NewPricesMeta converts slim origin metadata.
func NewPricesMeta(m OriginMetadataSlim) PricesMeta {
	return PricesMeta{
		ProvenanceUUID:     m.ProvenanceUUID,
		RequestedTimestamp: m.RequestedTimestamp.UnixMilli(),
		ActualTimestamp:    m.ActualTimestamp.UnixMilli(),
	}
}

// PriceItem is one key/price pair of an ordered price listing.
type PriceItem struct {
	Key   string
	Price json.Number
}

// PriceList is an ordered JSON object. Order matters: "others" stays last.
type PriceList []PriceItem

// MarshalJSON writes the list as an object, preserving order.
func (l PriceList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(string(item.Price))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PricesResponse lists the price identifier of every coin in a snapshot.
type PricesResponse struct {
	Status    string     `json:"status"`
	Data      PriceList  `json:"data"`
	Timestamp int64      `json:"timestamp"`
	Meta      PricesMeta `json:"meta"`
}

// PriceByIDResponse is a single coin's price identifier.
type PriceByIDResponse struct {
	Status        string      `json:"status"`
	CoinID        string      `json:"coin_id"`
	CoinSymbol    string      `json:"coin_symbol"`
	Price         json.Number `json:"price"`
	PriceOriginal json.Number `json:"price_original"`
	Timestamp     int64       `json:"timestamp"`
	Meta          PricesMeta  `json:"meta"`
}

// HistoryResponse wraps a full history dataset.
type HistoryResponse struct {
	Status string   `json:"status"`
	Data   *Dataset `json:"data"`
}

// HistorySlimResponse wraps a slim history dataset.
type HistorySlimResponse struct {
	Status string      `json:"status"`
	Data   SlimDataset `json:"data"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status         string `json:"status"`
	Database       bool   `json:"database"`
	ActiveMonitors int64  `json:"active_monitors"`
	CachedDatasets int    `json:"cached_datasets"`
}
