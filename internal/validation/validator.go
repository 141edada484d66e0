// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package validation

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one request field.
type FieldError struct {
	Field   string
	Tag     string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects every failed field of a request, in
// struct field order.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the failed fields.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		parts[i] = fe.Message
	}
	return strings.Join(parts, "; ")
}

// Reason returns the first message. Error bodies carry a single reason.
func (ve *RequestValidationError) Reason() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	return ve.errors[0].Message
}

// GetValidator returns the shared validator with the custom tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("sha256hex", isSHA256Hex)
		_ = validate.RegisterValidation("unixtime", isUnixTime)
	})
	return validate
}

func isSHA256Hex(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 2*32 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func isUnixTime(fl validator.FieldLevel) bool {
	n, err := strconv.ParseInt(fl.Field().String(), 10, 64)
	return err == nil && n >= 0
}

// ValidateStruct validates s. It returns nil when every rule passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: message(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

// invalidValue names what a tag checks; the rejected value is quoted after it.
var invalidValue = map[string]string{
	"sha256hex":    "SHA256 hash",
	"uuid":         "UUID",
	"uuid_rfc4122": "UUID",
	"unixtime":     "timestamp",
	"boolean":      "boolean",
}

func message(fe validator.FieldError) string {
	if what, ok := invalidValue[fe.Tag()]; ok {
		return fmt.Sprintf("Invalid %s: %v", what, fe.Value())
	}
	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
