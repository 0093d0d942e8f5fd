package contextproc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ragstack/ragcore/internal/model"
)

var causeCues = []string{"because", "cause", "due to", "leads to", "results in", "driven by"}
var effectCues = []string{"therefore", "consequently", "as a result", "thus", "hence", "effect"}

// orderForAssembly applies the final coherence ordering. Selection order
// is preserved for the default intent.
func orderForAssembly(segments []*ContentSegment, intent Intent) []*ContentSegment {
	out := make([]*ContentSegment, len(segments))
	copy(out, segments)
	switch intent {
	case IntentTemporal:
		// Chronological, oldest first.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Recency < out[j].Recency
		})
	case IntentComparative:
		return roundRobinByType(out, len(out))
	case IntentCausal:
		sort.SliceStable(out, func(i, j int) bool {
			return causalRank(out[i]) < causalRank(out[j])
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Importance > out[j].Importance
		})
	}
	return out
}

// causalRank buckets cause-cue segments before neutral ones, effect-cue
// segments after.
func causalRank(seg *ContentSegment) int {
	lower := strings.ToLower(seg.Content)
	for _, cue := range causeCues {
		if strings.Contains(lower, cue) {
			return 0
		}
	}
	for _, cue := range effectCues {
		if strings.Contains(lower, cue) {
			return 2
		}
	}
	return 1
}

// assemble joins segments with blank-line separators, appending a
// 1-based bracketed marker per segment when citations are preserved.
func assemble(segments []*ContentSegment, preserveCitations bool) string {
	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Content)
		if preserveCitations {
			text = fmt.Sprintf("%s [%d]", text, i+1)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

// Key-concept extraction feeds citation relevance. Proper-noun runs,
// acronyms and a few domain nouns count as concepts.
var (
	properNounRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	acronymRe    = regexp.MustCompile(`\b(?:[A-Z]{2,6}|AI|ML|VR|AR|XR)\b`)
	domainNounRe = regexp.MustCompile(`(?i)\b(patent|method|device|system|algorithm|model|apparatus)\b`)
)

func extractKeyConcepts(text string) []string {
	seen := make(map[string]struct{})
	var concepts []string
	for _, re := range []*regexp.Regexp{properNounRe, acronymRe, domainNounRe} {
		for _, m := range re.FindAllString(text, -1) {
			key := strings.ToLower(m)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			concepts = append(concepts, m)
		}
	}
	return concepts
}

// CitationWeights blend the five relevance components.
type CitationWeights struct {
	ContextOverlap float64 `json:"context_overlap"`
	KeyConcepts    float64 `json:"key_concepts"`
	Authority      float64 `json:"authority"`
	TitleOverlap   float64 `json:"title_overlap"`
	Recency        float64 `json:"recency"`
}

func DefaultCitationWeights() CitationWeights {
	return CitationWeights{
		ContextOverlap: 0.4,
		KeyConcepts:    0.3,
		Authority:      0.15,
		TitleOverlap:   0.1,
		Recency:        0.05,
	}
}

// citationRelevance scores how much a segment contributes to the final
// context. The key-concept component is binary: full credit when any of
// the segment's concepts survive into the context, a floor otherwise.
func citationRelevance(seg *ContentSegment, contextText string, weights CitationWeights) float64 {
	contextWords := wordSetOf(contextText)
	segWords := seg.wordSet()

	overlap := 0.0
	if len(segWords) > 0 {
		matched := 0
		for w := range segWords {
			if _, ok := contextWords[w]; ok {
				matched++
			}
		}
		overlap = float64(matched) / float64(len(segWords))
	}

	conceptScore := 0.3
	lowerContext := strings.ToLower(contextText)
	for _, concept := range extractKeyConcepts(seg.Content) {
		if strings.Contains(lowerContext, strings.ToLower(concept)) {
			conceptScore = 1.0
			break
		}
	}

	titleOverlap := 0.0
	titleWords := wordSetOf(seg.Meta.Title)
	if len(titleWords) > 0 {
		matched := 0
		for w := range titleWords {
			if _, ok := segWords[w]; ok {
				matched++
			}
		}
		titleOverlap = float64(matched) / float64(len(titleWords))
	}

	score := overlap*weights.ContextOverlap +
		conceptScore*weights.KeyConcepts +
		seg.Authority*weights.Authority +
		titleOverlap*weights.TitleOverlap +
		seg.Recency*weights.Recency
	return clamp01(score)
}

func buildCitations(segments []*ContentSegment, contextText string, weights CitationWeights) ([]model.Citation, model.CitationRelevance) {
	citations := make([]model.Citation, 0, len(segments))
	agg := model.CitationRelevance{Min: 1}
	for i, seg := range segments {
		relevance := citationRelevance(seg, contextText, weights)
		excerpt := seg.Content
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		citations = append(citations, model.Citation{
			ID:               fmt.Sprintf("%d", i+1),
			Title:            seg.Meta.Title,
			DocType:          seg.Meta.DocType,
			RelevanceScore:   relevance,
			ChunkIndex:       seg.Chunk.ChunkIndex,
			ExtractedContent: excerpt,
			URL:              seg.Meta.URL,
			Authors:          seg.Meta.Authors,
			PublishedDate:    seg.Meta.PublishedDate,
		})
		agg.Average += relevance
		if relevance < agg.Min {
			agg.Min = relevance
		}
		if relevance > agg.Max {
			agg.Max = relevance
		}
	}
	if len(citations) == 0 {
		return citations, model.CitationRelevance{}
	}
	agg.Average /= float64(len(citations))
	return citations, agg
}

// QualityWeights blend the five quality axes into the overall score.
type QualityWeights struct {
	Relevance    float64 `json:"relevance"`
	Diversity    float64 `json:"diversity"`
	Authority    float64 `json:"authority"`
	Coherence    float64 `json:"coherence"`
	Completeness float64 `json:"completeness"`
}

func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		Relevance:    0.3,
		Diversity:    0.2,
		Authority:    0.2,
		Coherence:    0.15,
		Completeness: 0.15,
	}
}

func qualityMetrics(query string, segments []*ContentSegment, weights QualityWeights) model.QualityMetrics {
	var m model.QualityMetrics
	if len(segments) == 0 {
		return m
	}

	for _, seg := range segments {
		m.RelevanceScore += seg.Relevance
		m.AuthorityScore += seg.Authority
	}
	m.RelevanceScore /= float64(len(segments))
	m.AuthorityScore /= float64(len(segments))

	m.DiversityScore = 1 - meanPairwiseSimilarity(segments)
	m.CoherenceScore = coherenceScore(segments)
	m.CompletenessScore = completenessScore(query, segments)

	m.OverallQuality = m.RelevanceScore*weights.Relevance +
		m.DiversityScore*weights.Diversity +
		m.AuthorityScore*weights.Authority +
		m.CoherenceScore*weights.Coherence +
		m.CompletenessScore*weights.Completeness
	return m
}

func meanPairwiseSimilarity(segments []*ContentSegment) float64 {
	if len(segments) < 2 {
		return 0
	}
	sum := 0.0
	pairs := 0
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			sum += segmentSimilarity(segments[i], segments[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// coherenceScore walks adjacent pairs: too repetitive reads poorly, too
// disjoint reads worse, everything in between flows.
func coherenceScore(segments []*ContentSegment) float64 {
	if len(segments) < 2 {
		return 1
	}
	sum := 0.0
	for i := 0; i+1 < len(segments); i++ {
		sim := segmentSimilarity(segments[i], segments[i+1])
		switch {
		case sim > 0.7:
			sum += 0.5
		case sim < 0.1:
			sum += 0.3
		default:
			sum += 1
		}
	}
	return sum / float64(len(segments)-1)
}

// completenessScore averages query-term coverage with source diversity,
// saturating diversity at three distinct documents.
func completenessScore(query string, segments []*ContentSegment) float64 {
	queryWords := wordSetOf(query)
	coverage := 1.0
	if len(queryWords) > 0 {
		covered := 0
		for w := range queryWords {
			for _, seg := range segments {
				if _, ok := seg.wordSet()[w]; ok {
					covered++
					break
				}
			}
		}
		coverage = float64(covered) / float64(len(queryWords))
	}
	sources := make(map[string]struct{})
	for _, seg := range segments {
		sources[seg.Meta.DocumentID] = struct{}{}
	}
	diversity := float64(len(sources)) / 3
	if diversity > 1 {
		diversity = 1
	}
	return (coverage + diversity) / 2
}
