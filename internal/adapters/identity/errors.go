package identity

import "errors"

// Sentinel kinds for identity errors.
var (
	ErrEmptySecret  = errors.New("jwt secret is empty")
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)
