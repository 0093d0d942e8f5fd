package model

// ResultSource tags which retrieval branch surfaced a fused result.
type ResultSource string

const (
	SourceVector ResultSource = "vector"
	SourceBM25   ResultSource = "bm25"
	SourceBoth   ResultSource = "both"
)

// SearchResult is a scored chunk surfaced by one retrieval branch.
type SearchResult struct {
	Chunk        Chunk        `json:"chunk"`
	Meta         DocumentMeta `json:"meta"`
	Similarity   float64      `json:"similarity,omitempty"`
	LexicalScore float64      `json:"lexical_score,omitempty"`
	RerankScore  float64      `json:"rerank_score,omitempty"`
}

// RankedChunk is a fused retrieval result after Reciprocal Rank Fusion.
type RankedChunk struct {
	SearchResult
	RRFScore float64      `json:"rrf_score"`
	Source   ResultSource `json:"source"`
}

// SearchStats is the per-query observability record emitted by the hybrid
// engine for offline tuning.
type SearchStats struct {
	QueryType      string  `json:"query_type"`
	VectorResults  int     `json:"vector_results"`
	BM25Results    int     `json:"bm25_results"`
	FusedResults   int     `json:"fused_results"`
	AvgVectorScore float64 `json:"avg_vector_score"`
	AvgBM25Score   float64 `json:"avg_bm25_score"`
	LatencyMs      int64   `json:"latency_ms"`
	Degraded       bool    `json:"degraded"`
}
