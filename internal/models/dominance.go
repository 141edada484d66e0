// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/rounding"
)

// tickerSeparator joins the underlying id and the dominance mode in ticker ids.
const tickerSeparator = "^"

// hundred is the total market share, in percent.
var hundred = decimal.NewFromInt(100)

// DominanceMode distinguishes a dominance value from its complement.
type DominanceMode int

const (
	// Dom is the share of the total market held by the underlying.
	Dom DominanceMode = iota
	// AltDom is the share held by everything else (100 - Dom).
	AltDom
)

// DominanceParseError is returned for unknown dominance mode names.
type DominanceParseError struct {
	Input string
}

func (e *DominanceParseError) Error() string {
	return fmt.Sprintf("invalid dominance kind specified: '%s'", e.Input)
}

// ParseDominanceMode parses "dom" or "altdom", ignoring case and punctuation.
func ParseDominanceMode(s string) (DominanceMode, error) {
	switch rounding.Normalize(s) {
	case "dom":
		return Dom, nil
	case "altdom":
		return AltDom, nil
	default:
		return Dom, &DominanceParseError{Input: s}
	}
}

// Opposite returns the complementary mode.
func (m DominanceMode) Opposite() DominanceMode {
	if m == Dom {
		return AltDom
	}
	return Dom
}

// RoundingMode returns the rounding mode that keeps a Dom/AltDom pair summing to 100.
func (m DominanceMode) RoundingMode() rounding.Mode {
	if m == AltDom {
		return rounding.HalfUpOpposite
	}
	return rounding.HalfUp
}

// TickerID returns "dom" or "altdom".
func (m DominanceMode) TickerID() string {
	if m == AltDom {
		return "altdom"
	}
	return "dom"
}

// TickerDisplay returns "DOM" or "-ALTDOM".
func (m DominanceMode) TickerDisplay() string {
	if m == AltDom {
		return "-ALTDOM"
	}
	return "DOM"
}

func (m DominanceMode) String() string {
	return m.TickerID()
}

// MarshalJSON implements json.Marshaler.
func (m DominanceMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.TickerID())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *DominanceMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDominanceMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// DominanceAsset is an underlying paired with a dominance mode, e.g. BTC DOM
// or BTC ALTDOM. Use Key for map lookups; the ticker is display only.
type DominanceAsset struct {
	Underlying Symbol
	Mode       DominanceMode
}

// NewDominanceAsset builds a DominanceAsset.
func NewDominanceAsset(underlying Symbol, mode DominanceMode) DominanceAsset {
	return DominanceAsset{Underlying: underlying, Mode: mode}
}

// Opposite returns the same underlying with the complementary mode.
func (a DominanceAsset) Opposite() DominanceAsset {
	return DominanceAsset{Underlying: a.Underlying, Mode: a.Mode.Opposite()}
}

// Key returns a comparable identity that ignores the display ticker.
func (a DominanceAsset) Key() string {
	return a.TickerID()
}

// TickerID returns "<id>^<mode>", e.g. "bitcoin^altdom".
func (a DominanceAsset) TickerID() string {
	return a.Underlying.TickerID() + tickerSeparator + a.Mode.TickerID()
}

// TickerDisplay returns e.g. "BTCDOM" or "BTC-ALTDOM".
func (a DominanceAsset) TickerDisplay() string {
	return a.Underlying.TickerDisplay() + a.Mode.TickerDisplay()
}

// RawValueOf converts a stored dominance percentage into this asset's
// unrounded value: unchanged for Dom, 100 - v for AltDom.
func (a DominanceAsset) RawValueOf(v decimal.Decimal) decimal.Decimal {
	if a.Mode == AltDom {
		return hundred.Sub(v)
	}
	return v
}

type dominanceAssetJSON struct {
	Kind   string        `json:"kind"`
	Symbol Symbol        `json:"symbol"`
	Mode   DominanceMode `json:"mode"`
}

// MarshalJSON renders the asset as {"kind":"dominance","symbol":{...},"mode":"dom"}.
func (a DominanceAsset) MarshalJSON() ([]byte, error) {
	return json.Marshal(dominanceAssetJSON{
		Kind:   "dominance",
		Symbol: a.Underlying,
		Mode:   a.Mode,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *DominanceAsset) UnmarshalJSON(data []byte) error {
	var raw dominanceAssetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind != "" && raw.Kind != "dominance" {
		return fmt.Errorf("unexpected asset kind %q", raw.Kind)
	}
	a.Underlying = NewSymbol(raw.Symbol.ID, raw.Symbol.Ticker)
	a.Mode = raw.Mode
	return nil
}
