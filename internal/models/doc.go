// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

/*
Package models defines the domain and wire types for the dominance API.

Key Components:

  - Symbol: an instrument identified by its CoinGecko id
  - DominanceAsset: an underlying paired with Dom or AltDom
  - AssetWithMetadata: an asset bound to its display rounding
  - Registry: the explicitly constructed set of assets the API serves
  - Dataset / SlimDataset: trailing history for one asset
  - Provenance, Blob, CoinDominanceEntry: stored snapshot records
  - *Response: JSON bodies written by the HTTP API

Decimal Handling:

Every percentage and market cap is a shopspring decimal.Decimal. Values are
serialized as raw JSON numbers (json.Number) so no digit is lost on the wire.

Example:

	reg := models.DefaultRegistry()
	btc, _ := reg.Lookup("btcdom")
	alt, _ := reg.Lookup("altdom")
	v := decimal.RequireFromString("61.2345")
	btc.ValueOf(v) // 61.23
	alt.ValueOf(v) // 38.77
*/
package models
