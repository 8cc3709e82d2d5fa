package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoRating        = errors.New("no composite rating for instructor")
	ErrNoLink          = errors.New("no link for instructor and provider")
)
