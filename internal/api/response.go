// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/domfi/internal/database"
	"github.com/tomtom215/domfi/internal/history"
	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/models"
	"github.com/tomtom215/domfi/internal/validation"
)

// Client-facing reasons for store failures.
const (
	reasonNotFound      = "Unable to find data origin requested"
	reasonDatabaseError = "Invalid database connection error"
)

// respondJSON writes data as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","reason":"Failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Failed to write response body")
	}
}

// respondError writes {"status":"error","reason":reason}.
func respondError(w http.ResponseWriter, status int, reason string) {
	respondJSON(w, status, models.NewErrorResponse(reason))
}

// writeDomainError maps an error from the store, the history service or
// request validation to its status code and reason.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *validation.RequestValidationError
		transportErr  *history.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Reason())

	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, reasonNotFound)

	case errors.Is(err, history.ErrCoinUnknownOrNotAllowed):
		respondError(w, http.StatusBadRequest, history.ErrCoinUnknownOrNotAllowed.Error())

	case errors.Is(err, history.ErrDBError):
		logging.Ctx(r.Context()).Error().Err(err).Msg("History fetch failed")
		respondError(w, http.StatusInternalServerError, history.ErrDBError.Error())

	case errors.As(err, &transportErr):
		logging.Ctx(r.Context()).Error().Err(err).Msg("History service unreachable")
		respondError(w, http.StatusInternalServerError, transportErr.Reason())

	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Database error")
		respondError(w, http.StatusInternalServerError, reasonDatabaseError)
	}
}
