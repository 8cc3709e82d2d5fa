package repository

import "errors"

// Sentinel kinds for link store errors.
var (
	ErrNotFound      = errors.New("link not found")
	ErrPublishFailed = errors.New("publish failed")
)
