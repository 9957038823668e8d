package matching

import "errors"

var (
	// ErrEmbeddingUnavailable is returned when the embedding model failed or returned no vector.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrDimensionMismatch is returned when two vectors cannot be compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidInput is returned for requests the scorer cannot work with.
	ErrInvalidInput = errors.New("invalid match input")
)
