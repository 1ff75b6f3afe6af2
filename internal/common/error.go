// Package common defines shared constants and sentinel errors used across
// the TaskFlow data layer. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Facade-level errors, detected before any store access.
	ErrValidation       = errors.New("validation error")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Transient store failures (network, quota, connection). Wrapped around
	// the underlying driver error so callers can retry.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Blob storage errors. Returned when a file name already exists for a
	// task and the collision policy rejects overwrites.
	ErrDuplicateName = errors.New("duplicate file name")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
)
