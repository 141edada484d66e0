// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package api

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/domfi/internal/validation"
)

// ProvenanceRequest is the path of GET /provenance/{uuid}.
type ProvenanceRequest struct {
	UUID string `validate:"required,uuid_rfc4122"`
}

// BlobRequest is the path of GET /blob/{sha256}.
type BlobRequest struct {
	SHA256 string `validate:"sha256hex"`
}

// TimestampQuery is the optional ?timestamp= of the snapshot endpoints.
type TimestampQuery struct {
	Timestamp string `validate:"omitempty,unixtime"`
}

// PriceRequest is GET /price/{id}.
type PriceRequest struct {
	ID string `validate:"required"`
	TimestampQuery
}

// HistoryRequest is GET /history/{id}.
type HistoryRequest struct {
	ID   string `validate:"required"`
	Slim string `validate:"omitempty,boolean"`
}

func parseProvenanceRequest(r *http.Request) (uuid.UUID, error) {
	req := ProvenanceRequest{UUID: chi.URLParam(r, "uuid")}
	if err := validation.ValidateStruct(req); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(req.UUID)
}

func parseBlobRequest(r *http.Request) ([]byte, error) {
	req := BlobRequest{SHA256: chi.URLParam(r, "sha256")}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	return hex.DecodeString(req.SHA256)
}

// parseTimestampQuery returns nil when no timestamp was given, meaning the
// newest snapshot.
func parseTimestampQuery(r *http.Request) (*time.Time, error) {
	q := TimestampQuery{Timestamp: r.URL.Query().Get("timestamp")}
	if err := validation.ValidateStruct(q); err != nil {
		return nil, err
	}
	return q.time(), nil
}

func (q TimestampQuery) time() *time.Time {
	if q.Timestamp == "" {
		return nil
	}
	secs, _ := strconv.ParseInt(q.Timestamp, 10, 64)
	ts := time.Unix(secs, 0).UTC()
	return &ts
}

func parsePriceRequest(r *http.Request) (PriceRequest, error) {
	req := PriceRequest{
		ID:             chi.URLParam(r, "id"),
		TimestampQuery: TimestampQuery{Timestamp: r.URL.Query().Get("timestamp")},
	}
	if err := validation.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

// parseHistoryRequest reports whether the slim projection was requested.
func parseHistoryRequest(r *http.Request) (HistoryRequest, bool, error) {
	req := HistoryRequest{
		ID:   chi.URLParam(r, "id"),
		Slim: r.URL.Query().Get("slim"),
	}
	if err := validation.ValidateStruct(req); err != nil {
		return req, false, err
	}
	slim, _ := strconv.ParseBool(req.Slim)
	return req, slim, nil
}
