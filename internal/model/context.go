package model

// Citation points a span of the assembled context back at its source
// chunk. Numbered 1-based in emission order.
type Citation struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	DocType          string   `json:"doc_type"`
	RelevanceScore   float64  `json:"relevance_score"`
	ChunkIndex       int      `json:"chunk_index"`
	ExtractedContent string   `json:"extracted_content"`
	URL              string   `json:"url,omitempty"`
	Authors          []string `json:"authors,omitempty"`
	PublishedDate    string   `json:"published_date,omitempty"`
}

// QualityMetrics scores the assembled context along five axes plus a
// weighted overall score.
type QualityMetrics struct {
	RelevanceScore    float64 `json:"relevance_score"`
	DiversityScore    float64 `json:"diversity_score"`
	AuthorityScore    float64 `json:"authority_score"`
	CoherenceScore    float64 `json:"coherence_score"`
	CompletenessScore float64 `json:"completeness_score"`
	OverallQuality    float64 `json:"overall_quality"`
}

// CitationRelevance aggregates the per-citation relevance scores.
type CitationRelevance struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ProcessedContext is the post-processor's output: one bounded,
// citation-annotated context string plus bookkeeping for the caller.
type ProcessedContext struct {
	Content           string            `json:"content"`
	TokenCount        int               `json:"token_count"`
	CompressionRatio  float64           `json:"compression_ratio"`
	SourceCount       int               `json:"source_count"`
	Citations         []Citation        `json:"citations"`
	QualityMetrics    QualityMetrics    `json:"quality_metrics"`
	ProcessingSteps   []string          `json:"processing_steps"`
	CitationRelevance CitationRelevance `json:"citation_relevance"`
}
