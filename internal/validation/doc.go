// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

// Package validation provides struct validation using go-playground/validator v10.
//
// The API binds path and query parameters into small request structs and
// validates them here before touching the database. A single validator
// instance is built once and caches struct reflection data.
//
// # Custom Tags
//
//   - sha256hex: exactly 64 hex digits, no 0x prefix
//   - unixtime: non-negative integer seconds since the epoch
//
// Built-in tags used by the API include uuid_rfc4122 (either case),
// boolean and required.
//
// # Error Messages
//
// Parameter errors quote the rejected value so clients see what was wrong:
//
//	sha256hex -> "Invalid SHA256 hash: abc"
//	uuid      -> "Invalid UUID: not-a-uuid"
//	unixtime  -> "Invalid timestamp: yesterday"
//	boolean   -> "Invalid boolean: maybe"
//
// RequestValidationError.Reason returns the first message, which becomes
// the "reason" of the JSON error body.
//
// # Example
//
//	type BlobRequest struct {
//	    SHA256 string `validate:"required,sha256hex"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, verr.Reason())
//	    return
//	}
package validation
