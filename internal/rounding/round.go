// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

// Package rounding implements exact decimal rounding for dominance values.
//
// All arithmetic is done on github.com/shopspring/decimal values, never on
// floating point, so complementary pairs (DOM and 100-DOM) can be rounded
// to display precision and still sum to exactly 100.
//
//	dom := rounding.Round(v, 2, rounding.HalfUp)
//	alt := rounding.Round(hundred.Sub(v), 2, rounding.HalfUpOpposite)
//	// dom.Add(alt) == 100.00
package rounding

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PriceIdentifierDigits is the fixed precision of price identifiers.
const PriceIdentifierDigits = 2

var bigTen = big.NewInt(10)

// Round reduces value to digits fractional digits using mode.
func Round(value decimal.Decimal, digits int32, mode Mode) decimal.Decimal {
	switch mode {
	case HalfUp:
		return value.Round(digits)
	case HalfUpOpposite:
		ceiling := decimal.New(1, integerDigits(value))
		return ceiling.Sub(ceiling.Sub(value).Round(digits))
	case Down:
		return value.Truncate(digits)
	default:
		return value
	}
}

// integerDigits returns the count of digits before the decimal point, never
// less than one.
func integerDigits(value decimal.Decimal) int32 {
	exp := value.Exponent()
	if exp >= 0 {
		return 1
	}
	k := int32(value.NumDigits()) + exp
	if k < 1 {
		return 1
	}
	return k
}

// RoundMinDigits rounds value to digits fractional digits, but only rounds
// away from zero when the first discarded digit is at least minDigit.
// Otherwise the discarded digits are truncated.
func RoundMinDigits(value decimal.Decimal, digits int32, minDigit uint8) decimal.Decimal {
	if digits >= 0 && -value.Exponent() <= digits {
		return value
	}

	truncated := value.Truncate(digits)

	shifted := value.Abs().Shift(digits + 1).Truncate(0).BigInt()
	first := new(big.Int).Mod(shifted, bigTen).Int64()
	if first < int64(minDigit) {
		return truncated
	}

	step := decimal.New(1, -digits)
	if value.Sign() < 0 {
		return truncated.Sub(step)
	}
	return truncated.Add(step)
}

// RoundPriceIdentifier rounds value half up to two decimals.
func RoundPriceIdentifier(value decimal.Decimal) decimal.Decimal {
	return Round(value, PriceIdentifierDigits, HalfUp)
}

// FormatPriceIdentifier renders a price identifier with exactly two decimals.
func FormatPriceIdentifier(value decimal.Decimal) string {
	return RoundPriceIdentifier(value).StringFixed(PriceIdentifierDigits)
}
