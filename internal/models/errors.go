package models

import "errors"

// Per-call error taxonomy. None of these are fatal to the process; a failed
// resolution is an expected outcome, not a fault.
var (
	// ErrStationNotFound means no resolution strategy produced a station.
	ErrStationNotFound = errors.New("station not found")

	// ErrInvalidRoute means the requested route has no known feed mapping.
	ErrInvalidRoute = errors.New("unknown route")

	// ErrFeedUnavailable means a single feed fetch or decode failed.
	ErrFeedUnavailable = errors.New("feed unavailable")
)
