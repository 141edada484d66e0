// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/history"
	"github.com/tomtom215/domfi/internal/models"
	"github.com/tomtom215/domfi/internal/rounding"
	ws "github.com/tomtom215/domfi/internal/websocket"
)

// Store is the read side of the database used by the handlers.
// Implemented by *database.DB.
type Store interface {
	Ping(ctx context.Context) error
	GetProvenance(ctx context.Context, id uuid.UUID) (*models.Provenance, error)
	GetBlob(ctx context.Context, sum []byte) (*models.Blob, error)
	FindByTimestamp(ctx context.Context, ts *time.Time) (*models.Snapshot, error)
	FindByIDAtTimestamp(ctx context.Context, asset models.DominanceAsset, ts *time.Time) (*models.PricingResult, error)
}

// HistoryService answers history requests. Implemented by *history.Service.
type HistoryService interface {
	Request(ctx context.Context, id string) (*models.Dataset, error)
	Stats(ctx context.Context) (history.Stats, error)
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	store    Store
	history  HistoryService
	registry *models.Registry
	wsHub    *ws.Hub
	upgrader gorillaws.Upgrader
	now      func() time.Time
}

// NewHandler creates a handler. wsHub may be nil, in which case /ws
// answers 503.
func NewHandler(store Store, historySvc HistoryService, registry *models.Registry, wsHub *ws.Hub, corsOrigins []string) *Handler {
	return &Handler{
		store:    store,
		history:  historySvc,
		registry: registry,
		wsHub:    wsHub,
		upgrader: ws.Upgrader(originChecker(corsOrigins)),
		now:      time.Now,
	}
}

// originChecker mirrors the CORS policy for websocket handshakes. An empty
// list or "*" accepts every origin.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// Ping reports liveness with the server time.
//
// @Summary Ping
// @Produce json
// @Success 200 {object} models.PingResponse
// @Router /ping [get]
func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, models.PingResponse{
		Status:    models.StatusSuccess,
		Timestamp: h.now().UnixMilli(),
	})
}

// Provenance returns a stored provenance record with its raw blob.
//
// @Summary Get provenance by UUID
// @Produce json
// @Param uuid path string true "Provenance UUID"
// @Success 200 {object} models.ProvenanceResponse
// @Failure 400 {object} models.ErrorResponse "Invalid UUID"
// @Failure 404 {object} models.ErrorResponse "Unknown provenance"
// @Router /provenance/{uuid} [get]
func (h *Handler) Provenance(w http.ResponseWriter, r *http.Request) {
	id, err := parseProvenanceRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.store.GetProvenance(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewProvenanceResponse(p))
}

// Blob returns the raw bytes stored under a sha256, with their mime type.
//
// @Summary Get blob by SHA256
// @Produce octet-stream
// @Param sha256 path string true "Hex encoded SHA256"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse "Invalid SHA256 hash"
// @Failure 404 {object} models.ErrorResponse "Unknown blob"
// @Router /blob/{sha256} [get]
func (h *Handler) Blob(w http.ResponseWriter, r *http.Request) {
	sum, err := parseBlobRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	blob, err := h.store.GetBlob(r.Context(), sum)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	mime := blob.Mime
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// CoinDominance returns the full snapshot at (or just after) the requested
// minute, or the newest snapshot.
//
// @Summary Get a coin dominance snapshot
// @Produce json
// @Param timestamp query int false "Unix seconds"
// @Success 200 {object} models.CoinDominanceResponse
// @Router /coingecko/coin_dominance [get]
func (h *Handler) CoinDominance(w http.ResponseWriter, r *http.Request) {
	ts, err := parseTimestampQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	snap, err := h.store.FindByTimestamp(r.Context(), ts)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	data := make([]models.CoinDominanceElement, len(snap.Records))
	for i, rec := range snap.Records {
		data[i] = models.CoinDominanceElement{
			Name:                rec.Name,
			ID:                  rec.ID,
			MarketCapUSD:        models.Number(rec.MarketCapUSD),
			DominancePercentage: models.Number(rec.DominancePercentage),
			PriceIdentifier:     priceIdentifier(rec.DominancePercentage),
		}
	}

	respondJSON(w, http.StatusOK, models.CoinDominanceResponse{
		Status:    models.StatusSuccess,
		Data:      data,
		Timestamp: snap.Meta.ActualTimestamp.Unix(),
		Meta:      models.NewCoinDominanceMeta(snap.Meta),
	})
}

// Prices lists the price identifier of every coin in a snapshot, keyed by
// coin id, with "others" last.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	ts, err := parseTimestampQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	snap, err := h.store.FindByTimestamp(r.Context(), ts)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	prices := make(models.PriceList, len(snap.Records))
	for i, rec := range snap.Records {
		prices[i] = models.PriceItem{Key: rec.PriceKey(), Price: priceIdentifier(rec.DominancePercentage)}
	}

	respondJSON(w, http.StatusOK, models.PricesResponse{
		Status:    models.StatusSuccess,
		Data:      prices,
		Timestamp: snap.Meta.ActualTimestamp.Unix(),
		Meta:      models.NewPricesMeta(snap.Meta.Slim()),
	})
}

// PriceByID returns one registry asset's price at a snapshot. price is the
// asset's rounded value; price_original is the stored dominance.
func (h *Handler) PriceByID(w http.ResponseWriter, r *http.Request) {
	req, err := parsePriceRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	asset, ok := h.registry.Lookup(req.ID)
	if !ok {
		respondError(w, http.StatusBadRequest, history.ErrCoinUnknownOrNotAllowed.Error())
		return
	}

	res, err := h.store.FindByIDAtTimestamp(r.Context(), asset.Asset, req.time())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.PriceByIDResponse{
		Status:        models.StatusSuccess,
		CoinID:        res.CoinID,
		CoinSymbol:    res.CoinSymbol,
		Price:         json.Number(asset.Metadata.Rounding.Format(asset.ValueOf(res.Percentage))),
		PriceOriginal: models.Number(res.Percentage),
		Timestamp:     res.Meta.ActualTimestamp.Unix(),
		Meta:          models.NewPricesMeta(res.Meta),
	})
}

// History returns the cached per-minute history of a registry asset.
//
// @Summary Get 72h history
// @Produce json
// @Param id path string true "Registry key, e.g. btcdom"
// @Param slim query bool false "Only tick and price"
// @Success 200 {object} models.HistoryResponse
// @Failure 400 {object} models.ErrorResponse "Unknown instrument or invalid flag"
// @Router /history/{id} [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	req, slim, err := parseHistoryRequest(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var dataset *models.Dataset
	if h.history == nil {
		err = &history.TransportError{Op: history.OpLocate, Err: history.ErrServiceUnavailable}
	} else {
		dataset, err = h.history.Request(r.Context(), req.ID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if slim {
		respondJSON(w, http.StatusOK, models.HistorySlimResponse{Status: models.StatusSuccess, Data: dataset.Slim()})
		return
	}
	respondJSON(w, http.StatusOK, models.HistoryResponse{Status: models.StatusSuccess, Data: dataset})
}

// WebSocket upgrades the connection and streams committed snapshots.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "WebSocket service unavailable")
		return
	}
	ws.ServeWS(h.wsHub, h.upgrader, w, r)
}

// priceIdentifier is the dominance rounded half up to exactly two decimals.
func priceIdentifier(v decimal.Decimal) json.Number {
	return json.Number(rounding.FormatPriceIdentifier(v))
}
