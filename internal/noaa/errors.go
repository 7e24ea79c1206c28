// SPDX-License-Identifier: MIT

package noaa

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrStationRequired     = errors.New("noaa: station ID is required")
	ErrNotFound            = errors.New("noaa: resource not found")
	ErrUpstreamUnavailable = errors.New("noaa: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("noaa: upstream internal error (5xx)")
	ErrBadResponse         = errors.New("noaa: invalid response format or missing payload")
	ErrTimeout             = errors.New("noaa: request timed out")
)

// APIError wraps the sentinel errors with request context.
type APIError struct {
	Sentinel  error
	Operation string
	Station   string
	Status    int
	Body      string
	Err       error // nested lower-level error (e.g. net.Error)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("noaa: %s: %v", e.Operation, e.Sentinel)
	if e.Station != "" {
		msg = fmt.Sprintf("%s (station %s)", msg, e.Station)
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}
