package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)
