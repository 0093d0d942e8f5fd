package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failOn map[string]error
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Embed(ctx context.Context, model, text, taskType string) ([]float32, error) {
	if err, ok := f.failOn[text]; ok {
		return nil, err
	}
	return []float32{0.5, 0.5}, nil
}

func TestBatchEmbedder_PartialFailure(t *testing.T) {
	boom := errors.New("backend down")
	provider := &flakyProvider{failOn: map[string]error{"bad": boom}}
	e := NewEmbedder(provider, EmbedderConfig{Model: "m", Dimension: 2})
	b := NewBatchEmbedder(e, nil, BatchEmbedderConfig{Concurrency: 2})

	items, err := b.EmbedBatch(context.Background(), []string{"good one", "bad", "another good"}, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.NoError(t, items[0].Err)
	require.ErrorIs(t, items[1].Err, boom)
	require.NoError(t, items[2].Err)
	require.Len(t, items[0].Vector, 2)
	require.Nil(t, items[1].Vector)
}

func TestBatchEmbedder_PreservesInputOrder(t *testing.T) {
	e := NewEmbedder(&flakyProvider{}, EmbedderConfig{Model: "m", Dimension: 2})
	b := NewBatchEmbedder(e, NewRateLimiter(RateLimitConfig{}), BatchEmbedderConfig{Concurrency: 4})

	texts := []string{"a a a", "b b b", "c c c", "d d d", "e e e"}
	items, err := b.EmbedBatch(context.Background(), texts, TaskTypeDocument)
	require.NoError(t, err)
	for i := range items {
		require.Equal(t, i, items[i].Index)
		require.NoError(t, items[i].Err)
	}
}
