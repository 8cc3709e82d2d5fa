package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrMalformedName = errors.New("malformed name")
)
