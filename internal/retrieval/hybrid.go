package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/ai"
	"github.com/ragstack/ragcore/internal/model"
)

// VectorSearcher ranks chunks by cosine similarity against a query vector.
type VectorSearcher interface {
	QueryByVector(ctx context.Context, ownerID string, vector []float32, limit int, minSimilarity float64) ([]model.SearchResult, error)
}

// LexicalSearcher ranks chunks by full-text relevance. Implementations
// own their own fallback chain for malformed query syntax.
type LexicalSearcher interface {
	SearchChunks(ctx context.Context, ownerID, query string, limit int) ([]model.SearchResult, error)
}

type Config struct {
	MaxResults          int     `json:"max_results"`
	MinVectorSimilarity float64 `json:"min_vector_similarity"`
	RRFK                int     `json:"rrf_k"`
}

func DefaultConfig() Config {
	return Config{
		MaxResults:          10,
		MinVectorSimilarity: 0.5,
		RRFK:                60,
	}
}

// Engine fuses vector and lexical search into one ranked list. Intent
// classification gates which branches run; a keyword query never pays
// for a query embedding.
type Engine struct {
	embedder ai.IEmbedder
	vector   VectorSearcher
	lexical  LexicalSearcher
	cfg      Config
}

func NewEngine(embedder ai.IEmbedder, vector VectorSearcher, lexical LexicalSearcher, cfg Config) *Engine {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultConfig().RRFK
	}
	return &Engine{embedder: embedder, vector: vector, lexical: lexical, cfg: cfg}
}

type Response struct {
	Results []model.RankedChunk
	Stats   model.SearchStats
}

// Search never returns an error to the caller. A failed branch degrades
// to the other signal; when both fail the response is empty with
// zero-valued stats.
func (e *Engine) Search(ctx context.Context, ownerID, query string) *Response {
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", ownerID))
	intent := ClassifyIntent(query)

	var vectorHits, lexicalHits []model.SearchResult
	degraded := false
	poolSize := 2 * e.cfg.MaxResults

	if intent == IntentSemantic || intent == IntentHybrid {
		hits, err := e.vectorSearch(ctx, ownerID, query, poolSize)
		if err != nil {
			logger.Warn("vector branch failed, degrading to lexical signal", zap.Error(err))
			degraded = true
		} else {
			vectorHits = hits
		}
	}
	if intent == IntentKeyword || intent == IntentHybrid {
		hits, err := e.lexical.SearchChunks(ctx, ownerID, query, poolSize)
		if err != nil {
			logger.Warn("lexical branch failed, degrading to vector signal", zap.Error(err))
			degraded = true
		} else {
			lexicalHits = hits
		}
	}

	fused := fuseRRF(vectorHits, lexicalHits, e.cfg.RRFK)
	if len(fused) > e.cfg.MaxResults {
		fused = fused[:e.cfg.MaxResults]
	}

	stats := model.SearchStats{
		QueryType:     string(intent),
		VectorResults: len(vectorHits),
		BM25Results:   len(lexicalHits),
		FusedResults:  len(fused),
		AvgVectorScore: averageOf(vectorHits, func(r model.SearchResult) float64 {
			return r.Similarity
		}),
		AvgBM25Score: averageOf(lexicalHits, func(r model.SearchResult) float64 {
			return r.LexicalScore
		}),
		LatencyMs: time.Since(start).Milliseconds(),
		Degraded:  degraded,
	}
	logger.Debug("hybrid search complete",
		zap.String("query_type", stats.QueryType),
		zap.Int("vector_results", stats.VectorResults),
		zap.Int("bm25_results", stats.BM25Results),
		zap.Int("fused_results", stats.FusedResults),
		zap.Bool("degraded", stats.Degraded))
	return &Response{Results: fused, Stats: stats}
}

func (e *Engine) vectorSearch(ctx context.Context, ownerID, query string, limit int) ([]model.SearchResult, error) {
	vec, _, err := e.embedder.Embed(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	return e.vector.QueryByVector(ctx, ownerID, vec, limit, e.cfg.MinVectorSimilarity)
}

// fuseRRF merges two ranked lists with reciprocal rank fusion. Each
// appearance contributes 1/(k+position+1); candidates keep first-seen
// order so equal scores break ties by the vector list, then lexical.
func fuseRRF(vectorHits, lexicalHits []model.SearchResult, k int) []model.RankedChunk {
	byID := make(map[string]int, len(vectorHits)+len(lexicalHits))
	var fused []model.RankedChunk

	add := func(hits []model.SearchResult, source model.ResultSource) {
		for pos, hit := range hits {
			contribution := 1.0 / float64(k+pos+1)
			if idx, ok := byID[hit.Chunk.ID]; ok {
				fused[idx].RRFScore += contribution
				if fused[idx].Source != source {
					fused[idx].Source = model.SourceBoth
				}
				if hit.Similarity > fused[idx].Similarity {
					fused[idx].Similarity = hit.Similarity
				}
				if hit.LexicalScore > fused[idx].LexicalScore {
					fused[idx].LexicalScore = hit.LexicalScore
				}
				continue
			}
			byID[hit.Chunk.ID] = len(fused)
			fused = append(fused, model.RankedChunk{
				SearchResult: hit,
				RRFScore:     contribution,
				Source:       source,
			})
		}
	}
	add(vectorHits, model.SourceVector)
	add(lexicalHits, model.SourceBM25)

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].RRFScore > fused[j].RRFScore
	})
	return fused
}

func averageOf(hits []model.SearchResult, score func(model.SearchResult) float64) float64 {
	if len(hits) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range hits {
		sum += score(h)
	}
	return sum / float64(len(hits))
}
