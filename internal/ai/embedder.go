package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/pkg/errs"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// DefaultMaxEmbedTokens is the context cap of the embedding model. Inputs
// estimated above it are rejected before the provider is called so the
// caller can pre-split and retry.
const DefaultMaxEmbedTokens = 8192

type EmbedderConfig struct {
	Model     string
	Dimension int
	MaxTokens int
	Timeout   time.Duration
}

type embedder struct {
	provider IEmbedProvider
	cfg      EmbedderConfig
}

// NewEmbedder wraps a provider with input-size checks and vector
// validation. Dimension 0 means "accept whatever length the provider
// returns" (still rejecting NaN/Inf/all-zero vectors).
func NewEmbedder(provider IEmbedProvider, cfg EmbedderConfig) IEmbedder {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxEmbedTokens
	}
	return &embedder{provider: provider, cfg: cfg}
}

func (e *embedder) ModelName() string {
	return e.cfg.Model
}

func (e *embedder) Dimension() int {
	return e.cfg.Dimension
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, int, error) {
	if e.provider == nil {
		return nil, 0, errs.ErrUnavailable
	}
	tokens := tokenest.Estimate(text)
	if tokens > e.cfg.MaxTokens {
		return nil, 0, fmt.Errorf("%w: estimated %d tokens, cap %d", errs.ErrEmbeddingTooLong, tokens, e.cfg.MaxTokens)
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	vec, err := e.provider.Embed(ctx, e.cfg.Model, text, taskType)
	if err != nil {
		return nil, 0, err
	}
	if err := validateVector(vec, e.cfg.Dimension); err != nil {
		logutil.GetLogger(ctx).Error("rejecting embedding vector",
			zap.String("model", e.cfg.Model),
			zap.Int("got_len", len(vec)),
			zap.Error(err),
		)
		return nil, 0, err
	}
	return vec, tokens, nil
}

func validateVector(vec []float32, wantDim int) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", errs.ErrEmbeddingDimension)
	}
	if wantDim > 0 && len(vec) != wantDim {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrEmbeddingDimension, len(vec), wantDim)
	}
	allZero := true
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value", errs.ErrEmbeddingDimension)
		}
		if v != 0 {
			allZero = false
		}
	}
	if allZero {
		return fmt.Errorf("%w: all-zero vector", errs.ErrEmbeddingDimension)
	}
	return nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or zero norms score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
