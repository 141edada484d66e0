// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OthersID is the empty coin id used for the aggregate "everything else" row.
const OthersID = ""

// OthersKey is the display key of the aggregate row in price listings.
const OthersKey = "others"

// ProvenanceID identifies a stored provenance record and its blob.
type ProvenanceID struct {
	UUID     uuid.UUID
	ObjectID int64
}

func (p ProvenanceID) String() string {
	return fmt.Sprintf("[uuid = %s, obj #%d]", p.UUID, p.ObjectID)
}

// ProvenanceInput is everything needed to record where a snapshot came from.
type ProvenanceInput struct {
	Agent            string
	Timestamp        time.Time
	Data             []byte
	Mime             string
	RequestMetadata  []byte
	ResponseMetadata []byte
}

// Provenance is a stored provenance record joined with its blob.
type Provenance struct {
	UUID             uuid.UUID
	Agent            string
	Timestamp        time.Time
	ObjectID         int64
	ObjectSHA256     []byte
	Data             []byte
	RequestMetadata  []byte
	ResponseMetadata []byte
}

// Blob is a content-addressed object.
type Blob struct {
	ID     int64
	SHA256 []byte
	Data   []byte
	Mime   string
}

// CoinDominanceEntry is one coin in a dominance snapshot, ready to insert.
type CoinDominanceEntry struct {
	Name                string
	ID                  string
	MarketCapUSD        decimal.Decimal
	DominancePercentage decimal.Decimal
	Timestamp           time.Time
}

// CoinDominanceRecord is one coin as read back from a stored snapshot.
type CoinDominanceRecord struct {
	Name                string
	ID                  string
	MarketCapUSD        decimal.Decimal
	DominancePercentage decimal.Decimal
}

// PriceKey returns the coin id, or "others" for the aggregate row.
func (r CoinDominanceRecord) PriceKey() string {
	if r.ID == OthersID {
		return OthersKey
	}
	return r.ID
}

// SortRecords orders records with the aggregate row last and the rest by
// market cap, largest first.
func SortRecords(records []CoinDominanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		oi, oj := records[i].ID == OthersID, records[j].ID == OthersID
		if oi != oj {
			return oj
		}
		return records[i].MarketCapUSD.GreaterThan(records[j].MarketCapUSD)
	})
}

// TimestampAgent locates a snapshot: the exact timestamp and the agent that wrote it.
type TimestampAgent struct {
	Timestamp time.Time
	Agent     string
}

// OriginMetadata describes where a snapshot came from.
type OriginMetadata struct {
	RequestedTimestamp time.Time
	ActualTimestamp    time.Time
	ImportedAt         time.Time
	ProvenanceUUID     uuid.UUID
	Agent              string
	BlobSHA256         []byte
}

// Slim drops the import and blob details.
func (m OriginMetadata) Slim() OriginMetadataSlim {
	return OriginMetadataSlim{
		RequestedTimestamp: m.RequestedTimestamp,
		ActualTimestamp:    m.ActualTimestamp,
		ProvenanceUUID:     m.ProvenanceUUID,
	}
}

// OriginMetadataSlim is the provenance summary attached to price lookups.
type OriginMetadataSlim struct {
	RequestedTimestamp time.Time
	ActualTimestamp    time.Time
	ProvenanceUUID     uuid.UUID
}

// Snapshot is every coin stored for one (timestamp, agent).
type Snapshot struct {
	Meta    OriginMetadata
	Records []CoinDominanceRecord
}

// PricingResult is a single coin at a resolved timestamp.
type PricingResult struct {
	Meta       OriginMetadataSlim
	CoinID     string
	CoinSymbol string
	Percentage decimal.Decimal
}

// HeaderEntry is one HTTP header line. Headers are kept as an ordered list so
// repeated keys survive.
type HeaderEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HeaderEntries flattens h into sorted key order.
func HeaderEntries(h http.Header) []HeaderEntry {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]HeaderEntry, 0, len(h))
	for _, k := range keys {
		for _, v := range h[k] {
			out = append(out, HeaderEntry{Key: k, Value: v})
		}
	}
	return out
}

// RequestMetadata records an outgoing upstream request.
type RequestMetadata struct {
	Method  string        `json:"method"`
	URL     string        `json:"url"`
	Headers []HeaderEntry `json:"headers"`
}

// ResponseMetadata records an upstream response.
type ResponseMetadata struct {
	URL     string        `json:"url"`
	Status  int           `json:"status"`
	Headers []HeaderEntry `json:"headers"`
}

// SnapshotCommitted is published after a snapshot has been stored.
type SnapshotCommitted struct {
	ProvenanceUUID uuid.UUID `json:"provenance_uuid"`
	Agent          string    `json:"agent"`
	Timestamp      int64     `json:"timestamp"`
	Rows           int       `json:"rows"`
}
