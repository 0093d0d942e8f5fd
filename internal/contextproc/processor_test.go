package contextproc

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

func ranked(id, docID, docType, title, content string, tokens int, sim float64) model.RankedChunk {
	return model.RankedChunk{
		SearchResult: model.SearchResult{
			Chunk: model.Chunk{
				ID:         id,
				DocumentID: docID,
				Content:    content,
				TokenCount: tokens,
			},
			Meta: model.DocumentMeta{
				DocumentID: docID,
				Title:      title,
				DocType:    docType,
			},
			Similarity: sim,
		},
		RRFScore: sim / 30,
		Source:   model.SourceVector,
	}
}

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"compare transformers versus recurrent networks", IntentComparative},
		{"what is the difference between X and Y", IntentComparative},
		{"why does annealing reduce defects", IntentCausal},
		{"latest developments in photonics", IntentTemporal},
		{"what is a tsvector", IntentFactual},
		{"overview of the storage landscape", IntentExploratory},
		{"transformer attention heads", IntentDefault},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DetectIntent(tc.query), "query: %q", tc.query)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	out := p.Process(context.Background(), "anything", nil, "", 0)
	require.Empty(t, out.Content)
	require.Zero(t, out.TokenCount)
	require.Empty(t, out.Citations)
	require.NotEmpty(t, out.ProcessingSteps)
}

func TestProcessPipeline(t *testing.T) {
	results := []model.RankedChunk{
		ranked("c1", "docA", "paper", "Solar Cells", "Perovskite solar cells reach record conversion efficiency in lab tests.", 60, 0.95),
		ranked("c2", "docB", "note", "Field Notes", "Volcanic soil composition changes after repeated eruption cycles.", 60, 0.8),
		ranked("c3", "docC", "url", "Blog", "Perovskite solar cells reach record conversion efficiency in lab tests today.", 60, 0.7),
	}
	p := NewProcessor(DefaultConfig())
	out := p.Process(context.Background(), "solar cell efficiency", results, "", 0)

	// c3 is a near-duplicate of c1 and must be deduplicated away.
	require.Equal(t, 2, len(out.Citations))
	require.Equal(t, 2, out.SourceCount)
	require.Contains(t, out.Content, "[1]")
	require.Contains(t, out.Content, "[2]")
	require.Contains(t, out.Content, "\n\n")
	require.Greater(t, out.TokenCount, 0)
	require.Greater(t, out.QualityMetrics.OverallQuality, 0.0)
	require.LessOrEqual(t, out.QualityMetrics.OverallQuality, 1.0)
	require.Greater(t, out.CitationRelevance.Average, 0.0)
	require.GreaterOrEqual(t, out.CitationRelevance.Max, out.CitationRelevance.Min)
}

func TestProcessRespectsBudget(t *testing.T) {
	var results []model.RankedChunk
	for i := 0; i < 8; i++ {
		content := strings.Repeat(fmt.Sprintf("unique segment %d filler text. ", i), 20)
		results = append(results, ranked(
			fmt.Sprintf("c%d", i), fmt.Sprintf("doc%d", i), "note",
			fmt.Sprintf("Note %d", i), content, 150, 0.9-float64(i)*0.05))
	}
	p := NewProcessor(DefaultConfig())
	out := p.Process(context.Background(), "filler", results, IntentDefault, 500)
	// TokenCount is the estimate of the final assembled text, citation
	// markers and separators included.
	require.LessOrEqual(t, out.TokenCount, 500)
	require.Less(t, out.CompressionRatio, 1.0)
}

func TestProcessBudgetCoversCitationMarkers(t *testing.T) {
	// Two segments whose raw token counts sum to exactly the budget. The
	// " [n]" markers and the separator must not push the assembled
	// context past it, so one segment has to be dropped or compressed.
	var results []model.RankedChunk
	for i := 0; i < 2; i++ {
		content := strings.TrimSpace(strings.Repeat(fmt.Sprintf("alpha%d beta%d gamma%d delta%d epsilon%d ", i, i, i, i, i), 25))
		tokens := tokenest.Estimate(content)
		results = append(results, ranked(
			fmt.Sprintf("c%d", i), fmt.Sprintf("doc%d", i), "note",
			fmt.Sprintf("Note %d", i), content, tokens, 0.9-float64(i)*0.05))
	}
	budget := results[0].Chunk.TokenCount + results[1].Chunk.TokenCount

	p := NewProcessor(DefaultConfig())
	out := p.Process(context.Background(), "edge case", results, IntentDefault, budget)
	require.NotEmpty(t, out.Content)
	require.Contains(t, out.Content, "[1]")
	require.LessOrEqual(t, out.TokenCount, budget)
}

func TestProcessSingleOversizedSegment(t *testing.T) {
	big := ranked("c1", "docA", "paper", "Big", strings.Repeat("dense prose sentence here. ", 300), 2000, 0.9)
	cfg := DefaultConfig()
	cfg.EnableSummarization = false
	p := NewProcessor(cfg)
	out := p.Process(context.Background(), "anything", []model.RankedChunk{big}, IntentDefault, 100)
	require.Len(t, out.Citations, 1)
	require.NotEmpty(t, out.Content)
}

func TestProcessCompressionKicksIn(t *testing.T) {
	content := "The first sentence sets context for the reader. " +
		"Filler prose continues without adding much substance to anything. " +
		"The key result shows a significant efficiency improvement overall."
	big := ranked("c1", "docA", "paper", "Big", strings.Repeat(content+" ", 10), 400, 0.9)
	p := NewProcessor(DefaultConfig())
	out := p.Process(context.Background(), "efficiency", []model.RankedChunk{big}, IntentDefault, 120)
	require.LessOrEqual(t, out.TokenCount, 120)
	require.Contains(t, strings.Join(out.ProcessingSteps, "; "), "compressed")
}

func TestProcessTemporalAssemblyOrder(t *testing.T) {
	older := ranked("c1", "docA", "paper", "Old", "Earlier work established the baseline measurement protocol.", 20, 0.9)
	older.Meta.PublishedDate = "2015-01-01"
	newer := ranked("c2", "docB", "paper", "New", "Recent experiments improved on the established protocol substantially.", 20, 0.8)
	newer.Meta.PublishedDate = "2025-01-01"

	p := NewProcessor(DefaultConfig())
	out := p.Process(context.Background(), "history of the protocol", []model.RankedChunk{newer, older}, IntentTemporal, 0)
	require.Less(t,
		strings.Index(out.Content, "Earlier work"),
		strings.Index(out.Content, "Recent experiments"))
}

func TestAssembleCitationMarkers(t *testing.T) {
	segments := []*ContentSegment{
		seg("a", "paper", "First finding.", 5, 0.9),
		seg("b", "note", "Second finding.", 5, 0.8),
	}
	text := assemble(segments, true)
	require.Equal(t, "First finding. [1]\n\nSecond finding. [2]", text)

	plain := assemble(segments, false)
	require.NotContains(t, plain, "[1]")
}

func TestCitationRelevanceClamped(t *testing.T) {
	s := seg("a", "paper", "Quantum Annealing hardware from DWAVE solves QUBO problems.", 10, 0.9)
	s.Authority = 0.9
	s.Recency = 1.0
	score := citationRelevance(s, s.Content, DefaultCitationWeights())
	require.Greater(t, score, 0.5)
	require.LessOrEqual(t, score, 1.0)
}

func TestExtractKeyConcepts(t *testing.T) {
	concepts := extractKeyConcepts("The Patent describes an ML device from Acme Corp using VR displays.")
	joined := strings.Join(concepts, " ")
	require.Contains(t, joined, "Acme Corp")
	require.Contains(t, joined, "ML")
	require.Contains(t, joined, "VR")
}

func TestCoherenceScorePairRules(t *testing.T) {
	same := seg("a", "note", "identical words in this segment", 5, 0.5)
	sameAgain := seg("b", "note", "identical words in this segment", 5, 0.5)
	// Adjacent near-duplicates read as too repetitive.
	require.Equal(t, 0.5, coherenceScore([]*ContentSegment{same, sameAgain}))

	disjoint := seg("c", "note", "completely unrelated vocabulary cluster", 5, 0.5)
	require.Equal(t, 0.3, coherenceScore([]*ContentSegment{same, disjoint}))

	require.Equal(t, 1.0, coherenceScore([]*ContentSegment{same}))
}

func TestCompletenessScore(t *testing.T) {
	a := seg("a", "note", "solar efficiency measurement", 5, 0.5)
	a.Meta.DocumentID = "d1"
	b := seg("b", "note", "panel degradation over time", 5, 0.5)
	b.Meta.DocumentID = "d2"
	c := seg("c", "note", "inverter design tradeoffs", 5, 0.5)
	c.Meta.DocumentID = "d3"

	// All query terms covered, three distinct sources: full marks.
	score := completenessScore("solar panel inverter", []*ContentSegment{a, b, c})
	require.InDelta(t, 1.0, score, 1e-9)

	// One of two query terms covered, one source.
	score = completenessScore("solar turbine", []*ContentSegment{a})
	require.InDelta(t, (0.5+1.0/3)/2, score, 1e-9)
}
