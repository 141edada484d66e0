// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/models"
)

// readyTimeout bounds the dependency checks of HealthReady.
const readyTimeout = 2 * time.Second

// HealthLive handles liveness probes. It answers 200 while the process is up,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{Status: models.StatusSuccess})
}

// HealthReady handles readiness probes. It answers 503 until the database
// responds to a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := models.HealthResponse{Status: models.StatusSuccess}

	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed: database")
		resp.Status = models.StatusError
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Database = true

	if h.history != nil {
		if st, err := h.history.Stats(ctx); err == nil {
			resp.ActiveMonitors = st.ActiveMonitors
			resp.CachedDatasets = st.Entries
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
