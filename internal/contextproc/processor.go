package contextproc

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

type Config struct {
	MaxContextTokens    int               `json:"max_context_tokens"`
	RedundancyThreshold float64           `json:"redundancy_threshold"`
	EnableSummarization bool              `json:"enable_summarization"`
	PreserveCitations   bool              `json:"preserve_citations"`
	ImportanceWeights   ImportanceWeights `json:"importance_weights"`
	CitationWeights     CitationWeights   `json:"citation_weights"`
	QualityWeights      QualityWeights    `json:"quality_weights"`
}

// Per-segment token cost of assembly beyond the segment content. A
// " [n]" citation marker plus the "\n\n" separator estimates at just
// under three tokens; separators alone at one. Budgeting with these
// keeps the assembled context inside maxTokens.
const (
	citationOverheadTokens = 3
	joinOverheadTokens     = 1
)

func DefaultConfig() Config {
	return Config{
		MaxContextTokens:    4000,
		RedundancyThreshold: 0.7,
		EnableSummarization: true,
		PreserveCitations:   true,
		ImportanceWeights:   DefaultImportanceWeights(),
		CitationWeights:     DefaultCitationWeights(),
		QualityWeights:      DefaultQualityWeights(),
	}
}

// Processor turns a ranked result list into one bounded, citation
// annotated context. The pipeline is linear: segmentation, dedup,
// selection, compression when over budget, assembly. It never fails;
// worst case is a single oversized segment.
type Processor struct {
	cfg Config
	now func() time.Time
}

func NewProcessor(cfg Config) *Processor {
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultConfig().MaxContextTokens
	}
	if cfg.RedundancyThreshold <= 0 {
		cfg.RedundancyThreshold = DefaultConfig().RedundancyThreshold
	}
	zero := ImportanceWeights{}
	if cfg.ImportanceWeights == zero {
		cfg.ImportanceWeights = DefaultImportanceWeights()
	}
	if (cfg.CitationWeights == CitationWeights{}) {
		cfg.CitationWeights = DefaultCitationWeights()
	}
	if (cfg.QualityWeights == QualityWeights{}) {
		cfg.QualityWeights = DefaultQualityWeights()
	}
	return &Processor{cfg: cfg, now: time.Now}
}

// Process runs the pipeline. intent may be empty, in which case it is
// detected from the query; maxTokens <= 0 falls back to the configured
// budget.
func (p *Processor) Process(ctx context.Context, query string, results []model.RankedChunk, intent Intent, maxTokens int) *model.ProcessedContext {
	logger := logutil.GetLogger(ctx)
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxContextTokens
	}
	if intent == "" {
		intent = DetectIntent(query)
	}
	out := &model.ProcessedContext{}
	if len(results) == 0 {
		out.ProcessingSteps = []string{"no input results"}
		return out
	}

	originalTokens := 0
	for _, res := range results {
		originalTokens += res.Chunk.TokenCount
	}

	segments := buildSegments(results, p.cfg.ImportanceWeights, p.now())
	out.ProcessingSteps = append(out.ProcessingSteps,
		fmt.Sprintf("segmented %d results", len(segments)))

	deduped := deduplicate(segments, p.cfg.RedundancyThreshold)
	if len(deduped) < len(segments) {
		out.ProcessingSteps = append(out.ProcessingSteps,
			fmt.Sprintf("removed %d redundant segments", len(segments)-len(deduped)))
	}

	overhead := joinOverheadTokens
	if p.cfg.PreserveCitations {
		overhead = citationOverheadTokens
	}
	selected := selectSegments(deduped, intent, maxTokens, overhead)
	out.ProcessingSteps = append(out.ProcessingSteps,
		fmt.Sprintf("selected %d segments under %d token budget (intent=%s)", len(selected), maxTokens, intent))

	if totalTokens(selected)+len(selected)*overhead > maxTokens && p.cfg.EnableSummarization {
		selected = compressSegments(selected, maxTokens, overhead)
		out.ProcessingSteps = append(out.ProcessingSteps,
			fmt.Sprintf("compressed to %d segments", len(selected)))
	}

	final := orderForAssembly(selected, intent)
	out.Content = assemble(final, p.cfg.PreserveCitations)
	out.TokenCount = tokenest.Estimate(out.Content)
	out.Citations, out.CitationRelevance = buildCitations(final, out.Content, p.cfg.CitationWeights)
	out.QualityMetrics = qualityMetrics(query, final, p.cfg.QualityWeights)
	out.SourceCount = distinctDocuments(final)
	if originalTokens > 0 {
		out.CompressionRatio = float64(out.TokenCount) / float64(originalTokens)
	}
	out.ProcessingSteps = append(out.ProcessingSteps,
		fmt.Sprintf("assembled %d segments, %d tokens", len(final), out.TokenCount))

	logger.Debug("context processed",
		zap.String("intent", string(intent)),
		zap.Int("segments", len(final)),
		zap.Int("token_count", out.TokenCount),
		zap.Float64("overall_quality", out.QualityMetrics.OverallQuality))
	return out
}

func totalTokens(segments []*ContentSegment) int {
	sum := 0
	for _, seg := range segments {
		sum += seg.TokenCount
	}
	return sum
}

func distinctDocuments(segments []*ContentSegment) int {
	docs := make(map[string]struct{})
	for _, seg := range segments {
		docs[seg.Meta.DocumentID] = struct{}{}
	}
	return len(docs)
}
