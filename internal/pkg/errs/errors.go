package errs

import "errors"

var (
	// ErrEmptyContent is returned when a chunker is handed blank or
	// whitespace-only text. Fatal for that document.
	ErrEmptyContent = errors.New("empty content")
	// ErrEmbeddingDimension is returned when a provider hands back a vector
	// whose length does not match the configured dimension, or one that
	// contains NaN/Inf or only zeros.
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")
	// ErrEmbeddingTooLong is returned before calling the provider when the
	// estimated token count exceeds the model's context cap. The caller must
	// pre-split and retry.
	ErrEmbeddingTooLong = errors.New("embedding input too long")
	// ErrSearchBackend marks a lexical or vector backend failure. Recoverable
	// through the fallback chain or partial-results degradation.
	ErrSearchBackend = errors.New("search backend error")
	// ErrValidation marks a produced chunk that fails size/content
	// invariants. Such chunks are dropped and logged, never surfaced.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable is returned by providers that are not configured.
	ErrUnavailable = errors.New("ai provider unavailable")
)

func IsEmptyContent(err error) bool {
	return errors.Is(err, ErrEmptyContent)
}

func IsSearchBackend(err error) bool {
	return errors.Is(err, ErrSearchBackend)
}

func IsEmbeddingTooLong(err error) bool {
	return errors.Is(err, ErrEmbeddingTooLong)
}
