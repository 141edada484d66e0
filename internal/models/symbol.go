// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"strings"
)

// Symbol identifies a tradable instrument by its upstream id (the CoinGecko
// coin id, e.g. "bitcoin") and a display ticker (e.g. "BTC").
// Identity is the id only; two symbols with the same id and different
// tickers are equal.
type Symbol struct {
	ID     string `json:"id"`
	Ticker string `json:"symbol"`
}

// NewSymbol builds a Symbol, normalizing the id to ASCII letters, digits,
// underscores and dashes.
func NewSymbol(id, ticker string) Symbol {
	return Symbol{ID: normalizeSymbolID(id), Ticker: ticker}
}

func normalizeSymbolID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Equal reports whether both symbols share the same id.
func (s Symbol) Equal(other Symbol) bool {
	return s.ID == other.ID
}

// Key returns the identity used for map lookups.
func (s Symbol) Key() string {
	return s.ID
}

// TickerID returns the machine identifier.
func (s Symbol) TickerID() string {
	return s.ID
}

// TickerDisplay returns the upper-cased ticker.
func (s Symbol) TickerDisplay() string {
	return strings.ToUpper(s.Ticker)
}
