// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package models

import (
	"sort"
	"strings"
)

// Canonical underlyings, keyed by CoinGecko coin id.
var (
	BTC  = NewSymbol("bitcoin", "BTC")
	ETH  = NewSymbol("ethereum", "ETH")
	BNB  = NewSymbol("binancecoin", "BNB")
	USDT = NewSymbol("tether", "USDT")
	DOT  = NewSymbol("polkadot", "DOT")
	XRP  = NewSymbol("ripple", "XRP")
	LTC  = NewSymbol("litecoin", "LTC")
	LINK = NewSymbol("chainlink", "LINK")
	BCH  = NewSymbol("bitcoin-cash", "BCH")
	BSV  = NewSymbol("bitcoin-cash-sv", "BSV")
)

// Registry is an immutable lookup of the assets the API serves, keyed by a
// lower-case identifier such as "btcdom". Build one with NewRegistry or
// DefaultRegistry and pass it to the components that need it.
type Registry struct {
	byKey   map[string]AssetWithMetadata
	byAsset map[string]Metadata
	keys    []string
}

// NewRegistry builds a registry from entries. Keys are lower-cased.
func NewRegistry(entries map[string]AssetWithMetadata) *Registry {
	r := &Registry{
		byKey:   make(map[string]AssetWithMetadata, len(entries)),
		byAsset: make(map[string]Metadata, len(entries)),
		keys:    make([]string, 0, len(entries)),
	}
	for key, asset := range entries {
		k := strings.ToLower(key)
		r.byKey[k] = asset
		r.byAsset[asset.Asset.Key()] = asset.Metadata
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)
	return r
}

// DefaultRegistry returns the canonical dominance assets.
func DefaultRegistry() *Registry {
	btcdom := DomOf(BTC)
	return NewRegistry(map[string]AssetWithMetadata{
		"btcdom":  btcdom,
		"altdom":  AltDomOf(btcdom),
		"ethdom":  DomOf(ETH),
		"bnbdom":  DomOf(BNB),
		"usdtdom": DomOf(USDT),
		"dotdom":  DomOf(DOT),
		"xrpdom":  DomOf(XRP),
		"ltcdom":  DomOf(LTC),
		"linkdom": DomOf(LINK),
		"bchdom":  DomOf(BCH),
		"bsvdom":  DomOf(BSV),
	})
}

// Lookup resolves a case-insensitive identifier.
func (r *Registry) Lookup(key string) (AssetWithMetadata, bool) {
	a, ok := r.byKey[strings.ToLower(key)]
	return a, ok
}

// MetadataFor returns the display configuration registered for asset.
func (r *Registry) MetadataFor(asset DominanceAsset) (Metadata, bool) {
	m, ok := r.byAsset[asset.Key()]
	return m, ok
}

// Keys returns every registered identifier in sorted order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	return len(r.keys)
}
