package common

import "errors"

// Error kinds surfaced by the gateway, stores and view services. Concrete errors
// wrap one of these so callers can classify with errors.Is.
var (
	// ErrNetworkFailure covers transport errors and non-2xx responses.
	ErrNetworkFailure = errors.New("network failure")

	// ErrDataQuality covers unparseable or unexpectedly shaped data.
	ErrDataQuality = errors.New("data quality failure")

	// ErrAuthFailure is returned when the backend rejects a login.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrStaleResponse marks a result superseded by a newer load of the same view.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrNotFound is returned by state stores on a missing key.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned before any request when arguments are unusable.
	ErrInvalidInput = errors.New("invalid input")
)
