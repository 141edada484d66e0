// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package history

import (
	"errors"
	"fmt"
)

// Errors returned by Service.Request. The messages are part of the public
// API and are written verbatim into error responses.
//
//nolint:revive,stylecheck // capitalized, punctuated messages are shown to API clients
var (
	ErrCoinUnknownOrNotAllowed = errors.New("Unknown instrument or not allowed.")
	ErrDBError                 = errors.New("Failed to fetch coin dominance history.")
	ErrServiceUnavailable      = errors.New("Failed to locate the service from the server context.")
)

// ErrStopped is the cause of transport errors after the coordinator has shut down.
var ErrStopped = errors.New("history coordinator stopped")

// TransportOp names the leg of the request/reply exchange that failed.
type TransportOp string

const (
	OpLocate  TransportOp = "locate"
	OpSend    TransportOp = "send"
	OpReceive TransportOp = "receive"
)

// TransportError reports a failure to talk to the coordinator. It never
// means the data itself could not be fetched; that is ErrDBError.
type TransportError struct {
	Op  TransportOp
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Reason returns the client-facing message for this failure.
func (e *TransportError) Reason() string {
	switch e.Op {
	case OpSend:
		return "Failed to communicate with interval service"
	case OpReceive:
		return "Failed to receive response from interval service"
	default:
		return ErrServiceUnavailable.Error()
	}
}
