// Package apperr defines sentinel errors shared across the service layers.
package apperr

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("too many requests")
)
