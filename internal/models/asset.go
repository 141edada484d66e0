// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/rounding"
)

// Rounding is the display precision of an asset.
type Rounding struct {
	Digits int32         `json:"digits"`
	Mode   rounding.Mode `json:"mode"`
}

// Round applies the configured precision to v.
func (r Rounding) Round(v decimal.Decimal) decimal.Decimal {
	return rounding.Round(v, r.Digits, r.Mode)
}

// Format renders a rounded value with a fixed number of decimals, or
// verbatim when the mode is None.
func (r Rounding) Format(v decimal.Decimal) string {
	if r.Mode == rounding.None {
		return v.String()
	}
	return v.StringFixed(r.Digits)
}

// WithMode returns a copy using mode.
func (r Rounding) WithMode(mode rounding.Mode) Rounding {
	r.Mode = mode
	return r
}

// Metadata carries per-asset display configuration.
type Metadata struct {
	Rounding Rounding `json:"rounding"`
}

// AssetWithMetadata binds a dominance asset to its display configuration.
type AssetWithMetadata struct {
	Asset    DominanceAsset `json:"asset"`
	Metadata Metadata       `json:"metadata"`
}

// RawValueOf returns the asset's unrounded value for a stored percentage.
func (a AssetWithMetadata) RawValueOf(v decimal.Decimal) decimal.Decimal {
	return a.Asset.RawValueOf(v)
}

// ValueOf returns the asset's display value for a stored percentage.
func (a AssetWithMetadata) ValueOf(v decimal.Decimal) decimal.Decimal {
	return a.Metadata.Rounding.Round(a.RawValueOf(v))
}

// DomOf builds the primary dominance asset for underlying with the default
// two digit HalfUp precision.
func DomOf(underlying Symbol) AssetWithMetadata {
	return AssetWithMetadata{
		Asset: NewDominanceAsset(underlying, Dom),
		Metadata: Metadata{
			Rounding: Rounding{Digits: 2, Mode: rounding.HalfUp},
		},
	}
}

// AltDomOf derives the complementary asset of dom. It keeps dom's digit
// count and switches to HalfUpOpposite so the pair always sums to 100.
func AltDomOf(dom AssetWithMetadata) AssetWithMetadata {
	return AssetWithMetadata{
		Asset: dom.Asset.Opposite(),
		Metadata: Metadata{
			Rounding: dom.Metadata.Rounding.WithMode(rounding.HalfUpOpposite),
		},
	}
}
