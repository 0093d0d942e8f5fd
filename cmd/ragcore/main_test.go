package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragcore/internal/pkg/errs"
)

func TestFriendlyError(t *testing.T) {
	require.NoError(t, friendlyError(nil))

	// Wrapped sentinels keep their identity and gain the hint.
	empty := friendlyError(fmt.Errorf("ingest doc1: %w", errs.ErrEmptyContent))
	require.ErrorIs(t, empty, errs.ErrEmptyContent)
	require.Contains(t, empty.Error(), "no usable text")

	tooLong := friendlyError(fmt.Errorf("embed chunk 3: %w", errs.ErrEmbeddingTooLong))
	require.ErrorIs(t, tooLong, errs.ErrEmbeddingTooLong)
	require.Contains(t, tooLong.Error(), "split the document")

	backend := friendlyError(fmt.Errorf("query: %w", errs.ErrSearchBackend))
	require.ErrorIs(t, backend, errs.ErrSearchBackend)
	require.Contains(t, backend.Error(), "retry later")

	// Anything else passes through untouched.
	plain := errors.New("disk full")
	require.Equal(t, plain, friendlyError(plain))
}
