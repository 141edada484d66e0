// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package rounding

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q): %v", s, err)
	}
	return d
}

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		digits int32
		mode   Mode
		want   string
	}{
		{"half up below midpoint", "12.451", 2, HalfUp, "12.45"},
		{"half up at midpoint", "12.455", 2, HalfUp, "12.46"},
		{"half up negative midpoint", "-12.455", 2, HalfUp, "-12.46"},
		{"down at midpoint", "12.455", 2, Down, "12.45"},
		{"down near next step", "12.459", 2, Down, "12.45"},
		{"down negative", "-12.459", 2, Down, "-12.45"},
		{"down fewer digits than requested", "12.4", 2, Down, "12.4"},
		{"none passes through", "12.456789", 2, None, "12.456789"},
		{"opposite at midpoint rounds toward zero", "87.565", 2, HalfUpOpposite, "87.56"},
		{"opposite above midpoint", "87.566", 2, HalfUpOpposite, "87.57"},
		{"opposite below midpoint", "87.564", 2, HalfUpOpposite, "87.56"},
		{"opposite integer", "100", 2, HalfUpOpposite, "100"},
		{"opposite sub unit", "0.005", 2, HalfUpOpposite, "0"},
		{"opposite tiny", "0.0001", 2, HalfUpOpposite, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round(dec(t, tt.input), tt.digits, tt.mode)
			want := dec(t, tt.want)
			if !got.Equal(want) {
				t.Errorf("Round(%s, %d, %s) = %s, want %s", tt.input, tt.digits, tt.mode, got, want)
			}
		})
	}
}

func TestRound_ComplementsSumToHundred(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	step := decimal.New(1, -4)

	v := decimal.New(0, -4)
	for v.LessThanOrEqual(hundred) {
		alt := hundred.Sub(v)
		dom := Round(v, 2, HalfUp)
		altRounded := Round(alt, 2, HalfUpOpposite)

		if sum := dom.Add(altRounded); !sum.Equal(hundred) {
			t.Fatalf("Round(%s, HalfUp) + Round(%s, HalfUpOpposite) = %s + %s = %s, want 100",
				v, alt, dom, altRounded, sum)
		}
		v = v.Add(step)
	}
}

func TestRoundMinDigits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		digits   int32
		minDigit uint8
		want     string
	}{
		{"already short enough", "12.4", 2, 5, "12.4"},
		{"below threshold truncates", "12.454", 2, 5, "12.45"},
		{"at threshold rounds up", "12.455", 2, 5, "12.46"},
		{"low threshold rounds up", "12.451", 2, 1, "12.46"},
		{"zero digit never rounds", "12.4509", 2, 1, "12.45"},
		{"negative rounds away from zero", "-12.457", 2, 5, "-12.46"},
		{"negative below threshold", "-12.452", 2, 5, "-12.45"},
		{"whole number target", "7.6", 0, 6, "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundMinDigits(dec(t, tt.input), tt.digits, tt.minDigit)
			want := dec(t, tt.want)
			if !got.Equal(want) {
				t.Errorf("RoundMinDigits(%s, %d, %d) = %s, want %s", tt.input, tt.digits, tt.minDigit, got, want)
			}
		})
	}
}

func TestFormatPriceIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"64.3322098302", "64.33"},
		{"64.335", "64.34"},
		{"64.3", "64.30"},
		{"0", "0.00"},
	}

	for _, tt := range tests {
		if got := FormatPriceIdentifier(dec(t, tt.input)); got != tt.want {
			t.Errorf("FormatPriceIdentifier(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
