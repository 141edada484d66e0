// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package rounding

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Mode selects how a decimal is reduced to a fixed number of fractional digits.
type Mode int

const (
	// None passes the value through unchanged.
	None Mode = iota
	// HalfUp rounds half away from zero.
	HalfUp
	// HalfUpOpposite mirrors HalfUp around the next power of ten, so that a
	// value rounded with HalfUp and its complement rounded with
	// HalfUpOpposite always sum to that power of ten.
	HalfUpOpposite
	// Down truncates toward zero.
	Down
)

// ParseError is returned by ParseMode for unrecognized input.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid rounding mode specified: '%s'", e.Input)
}

// String returns the SCREAMING_SNAKE_CASE name used on the wire.
func (m Mode) String() string {
	switch m {
	case None:
		return "NONE"
	case HalfUp:
		return "HALF_UP"
	case HalfUpOpposite:
		return "HALF_UP_OPPOSITE"
	case Down:
		return "DOWN"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a rounding mode name. Matching ignores case and every
// character that is not an ASCII letter or digit, so "half_up_opposite",
// "HALF UP OPPOSITE" and "HalfUpOpposite" are equivalent. The empty string,
// "none" and "ignore" all select None.
func ParseMode(s string) (Mode, error) {
	switch Normalize(s) {
	case "halfup":
		return HalfUp, nil
	case "halfupopposite":
		return HalfUpOpposite, nil
	case "down":
		return Down, nil
	case "none", "ignore", "":
		return None, nil
	default:
		return None, &ParseError{Input: s}
	}
}

// Normalize lowercases s and strips every non-alphanumeric ASCII character.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements json.Unmarshaler using ParseMode.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
