package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("matching service not started")
	ErrNotConfigured = errors.New("matching service missing snapshot or dataset sources")
	ErrRunInFlight   = errors.New("matching run already in flight")
)
