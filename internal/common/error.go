// Package common defines shared constants and sentinel errors used across
// recipebox layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Submission error taxonomy. Every error leaving the form layer
	// wraps exactly one of these.
	ErrValidation   = errors.New("validation error")
	ErrUpload       = errors.New("upload failed")
	ErrPersistence  = errors.New("persistence failed")
	ErrAuthRequired = errors.New("authentication required")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
