package ai

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// BatchItem is the outcome of embedding one input of a batch. Failures
// stay per-item; a batch never aborts because one input failed.
type BatchItem struct {
	Index  int
	Vector []float32
	Tokens int
	Err    error
}

type BatchEmbedderConfig struct {
	Concurrency int
	ItemTimeout time.Duration
}

// BatchEmbedder fans embedding requests out with bounded concurrency,
// acquiring a rate-limiter permit per request.
type BatchEmbedder struct {
	embedder IEmbedder
	limiter  *RateLimiter
	cfg      BatchEmbedderConfig
}

func NewBatchEmbedder(embedder IEmbedder, limiter *RateLimiter, cfg BatchEmbedderConfig) *BatchEmbedder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 30 * time.Second
	}
	return &BatchEmbedder{embedder: embedder, limiter: limiter, cfg: cfg}
}

// EmbedBatch embeds every text and returns one item per input, in input
// order. The only error returned is context cancellation; everything else
// is reported on the affected item.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([]BatchItem, error) {
	items := make([]BatchItem, len(texts))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.cfg.Concurrency)
	for i, text := range texts {
		i, text := i, text
		items[i].Index = i
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i].Vector, items[i].Tokens, items[i].Err = b.embedOne(gctx, text, taskType)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	failed := 0
	for i := range items {
		if items[i].Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logutil.GetLogger(ctx).Warn("batch embedding finished with failures",
			zap.Int("total", len(texts)),
			zap.Int("failed", failed),
		)
	}
	return items, nil
}

func (b *BatchEmbedder) embedOne(ctx context.Context, text string, taskType string) ([]float32, int, error) {
	if b.limiter != nil {
		permit, err := b.limiter.Acquire(ctx, tokenest.Estimate(text))
		if err != nil {
			return nil, 0, err
		}
		defer permit.Release()
	}
	itemCtx, cancel := context.WithTimeout(ctx, b.cfg.ItemTimeout)
	defer cancel()
	return b.embedder.Embed(itemCtx, text, taskType)
}
