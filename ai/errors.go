package ai

import "errors"

var (
	// ErrEmbeddingDisabled is returned when no API key is configured.
	ErrEmbeddingDisabled = errors.New("embedding disabled: no API key configured")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch is returned when a batch response has the wrong length.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
