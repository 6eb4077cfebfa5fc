// Package common defines shared constants and sentinel errors used across
// all layers of Spacebox. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors. Wrapped with a specific reason, e.g.
	// fmt.Errorf("%w: name must be between 2 and 16 characters", ErrValidation).
	ErrValidation = errors.New("validation error")

	// State-machine violations: finalizing a FAILED upload, materializing
	// content from a non-completed upload, and the like.
	ErrInvalidState = errors.New("invalid state")

	// The external object store rejected or timed out a write.
	ErrStorage = errors.New("storage error")
)
