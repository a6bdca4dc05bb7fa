// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType classifies reverse geocoding failures. The values double as
// the outcome label of the oracle metrics.
type ErrorType string

const (
	ErrorTypeUnknown        ErrorType = "unknown"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeQuotaExceeded  ErrorType = "quota_exceeded"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeNetworkError   ErrorType = "network_error"
)

// GeocodingError is a failure of the reverse geocoding oracle. Status holds
// the Geocoding API status or the HTTP status line that caused it, when
// there was one.
type GeocodingError struct {
	Type    ErrorType
	Status  string
	Message string
	Err     error
}

func (e *GeocodingError) Error() string {
	msg := e.Message
	if e.Status != "" {
		msg = e.Status + ": " + msg
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// ErrorTypeOf returns the classification of err, ErrorTypeUnknown for
// errors that did not come from an oracle.
func ErrorTypeOf(err error) ErrorType {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	return ErrorTypeUnknown
}

// IsTimeoutError reports whether err is an oracle timeout or an expired
// context deadline.
func IsTimeoutError(err error) bool {
	return ErrorTypeOf(err) == ErrorTypeTimeout
}

// apiStatusTypes maps the Geocoding API "status" field. UNKNOWN_ERROR is a
// server side failure that may succeed on retry.
var apiStatusTypes = map[string]ErrorType{
	"ZERO_RESULTS":     ErrorTypeNotFound,
	"OVER_QUERY_LIMIT": ErrorTypeRateLimit,
	"OVER_DAILY_LIMIT": ErrorTypeQuotaExceeded,
	"REQUEST_DENIED":   ErrorTypeQuotaExceeded,
	"INVALID_REQUEST":  ErrorTypeInvalidRequest,
	"UNKNOWN_ERROR":    ErrorTypeNetworkError,
}

// apiStatusError classifies a response whose status is not OK.
func apiStatusError(status, message string) *GeocodingError {
	t, ok := apiStatusTypes[status]
	if !ok {
		t = ErrorTypeUnknown
	}

	if message == "" {
		message = "geocoding API rejected the request"
	}

	return &GeocodingError{Type: t, Status: status, Message: message}
}

// httpStatusError classifies a non-200 answer from the Geocoding endpoint.
func httpStatusError(code int) *GeocodingError {
	t := ErrorTypeUnknown

	switch {
	case code == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case code == http.StatusForbidden:
		t = ErrorTypeQuotaExceeded
	case code == http.StatusBadRequest:
		t = ErrorTypeInvalidRequest
	case code >= http.StatusInternalServerError:
		t = ErrorTypeNetworkError
	}

	return &GeocodingError{
		Type:    t,
		Status:  fmt.Sprintf("HTTP %d", code),
		Message: http.StatusText(code),
	}
}

// transportError classifies an error returned by the HTTP client.
func transportError(err error) *GeocodingError {
	t := ErrorTypeNetworkError

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		t = ErrorTypeTimeout
	}

	return &GeocodingError{Type: t, Message: "reverse geocoding request failed", Err: err}
}
