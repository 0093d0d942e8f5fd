package chunker

// Config holds the sizing knobs shared by the structural and semantic
// chunkers. All token figures are measured with tokenest.Estimate.
type Config struct {
	TargetTokens         int     `json:"target_tokens"`
	MaxChunkTokens       int     `json:"max_chunk_tokens"`
	MinChunkTokens       int     `json:"min_chunk_tokens"`
	OverlapPercent       float64 `json:"overlap_percent"`
	SingleChunkThreshold int     `json:"single_chunk_threshold"`

	SemanticThreshold    float64 `json:"semantic_threshold"`
	SimilarityFloor      float64 `json:"similarity_floor"`
	MinSemanticChunkSize int     `json:"min_semantic_chunk_size"`
	MaxSemanticChunkSize int     `json:"max_semantic_chunk_size"`
	SemanticMinDocTokens int     `json:"semantic_min_doc_tokens"`
	SentenceBatchSize    int     `json:"sentence_batch_size"`
	EnableOverlap        bool    `json:"enable_overlap"`
}

func DefaultConfig() Config {
	return Config{
		TargetTokens:         900,
		MaxChunkTokens:       1200,
		MinChunkTokens:       100,
		OverlapPercent:       17.5,
		SingleChunkThreshold: 1000,
		SemanticThreshold:    0.7,
		SimilarityFloor:      0.4,
		MinSemanticChunkSize: 200,
		MaxSemanticChunkSize: 1400,
		SemanticMinDocTokens: 500,
		SentenceBatchSize:    20,
		EnableOverlap:        true,
	}
}

// StrategyForDocType tweaks the structural defaults for document families
// whose section structure behaves differently. Used when the semantic
// chunker falls back.
func StrategyForDocType(docType string) Config {
	cfg := DefaultConfig()
	switch docType {
	case "patent":
		// Patent claims run long and repeat heavily; bigger windows keep a
		// claim inside one chunk.
		cfg.TargetTokens = 1000
		cfg.OverlapPercent = 12.5
	case "academic", "paper":
		cfg.TargetTokens = 800
	case "technical":
		cfg.TargetTokens = 700
		cfg.OverlapPercent = 20
	}
	return cfg
}
