// Package embedcache decorates an embedder with content-addressed caches.
// Sentence-level semantic chunking re-embeds the same text often enough
// that a cache in front of the provider pays for itself quickly.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/ai"
)

func buildCacheKey(model, taskType, text string) (key string, contentHash string) {
	hash := sha256.Sum256([]byte(text))
	contentHash = hex.EncodeToString(hash[:])
	key = strings.Join([]string{model, taskType, contentHash}, "|")
	return key, contentHash
}

type cacheValue struct {
	vector []float32
	tokens int
}

// WrapLruCacheToEmbedder returns an embedder that memoizes vectors in an
// in-process expirable LRU keyed by model, task type and content hash.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, cacheValue](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, cacheValue]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, int, error) {
	if l == nil || l.next == nil {
		return nil, 0, nil
	}
	key, _ := buildCacheKey(l.next.ModelName(), taskType, text)
	if cached, ok := l.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.String("task_type", taskType))
		return cloneEmbedding(cached.vector), cached.tokens, nil
	}
	vec, tokens, err := l.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, 0, err
	}
	l.cache.Add(key, cacheValue{vector: cloneEmbedding(vec), tokens: tokens})
	return vec, tokens, nil
}

func (l *lruEmbedder) ModelName() string {
	if l == nil || l.next == nil {
		return ""
	}
	return l.next.ModelName()
}

func (l *lruEmbedder) Dimension() int {
	if l == nil || l.next == nil {
		return 0
	}
	return l.next.Dimension()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
