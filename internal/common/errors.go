// Package common defines shared constants and sentinel errors used across
// client and server layers of lessonvault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (missing file, missing required fields).
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Storage configuration and backend errors.
	ErrStorageNotConfigured = errors.New("storage credentials are not configured")
	ErrStorageCredentials   = errors.New("storage rejected the configured credentials")
	ErrStorageBucket        = errors.New("storage bucket is missing or access is denied")
	ErrStorageNetwork       = errors.New("storage backend is unreachable")
	ErrStorageFailure       = errors.New("storage upload failed")
)
