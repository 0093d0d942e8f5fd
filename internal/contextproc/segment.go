package contextproc

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// ContentSegment is the post-processor's working unit: one retrieval
// result plus the scores the pipeline stages consume.
type ContentSegment struct {
	Content    string
	TokenCount int
	Relevance  float64
	Recency    float64
	Authority  float64
	Importance float64
	Chunk      model.Chunk
	Meta       model.DocumentMeta

	words map[string]struct{}
}

// authorityByDocType is a fixed lookup; unknown types get a neutral
// weight below every known one.
var authorityByDocType = map[string]float64{
	model.DocTypePaper:    0.9,
	model.DocTypeAcademic: 0.9,
	model.DocTypeBook:     0.85,
	model.DocTypePatent:   0.8,
	model.DocTypePDF:      0.7,
	model.DocTypeNote:     0.6,
	model.DocTypeURL:      0.5,
}

const defaultAuthority = 0.45

func authorityOf(docType string) float64 {
	if a, ok := authorityByDocType[strings.ToLower(docType)]; ok {
		return a
	}
	return defaultAuthority
}

// recencyOf decays linearly over a 10-year window and never drops below
// 0.1. Unparseable or missing dates score neutral.
func recencyOf(published string, now time.Time) float64 {
	published = strings.TrimSpace(published)
	if published == "" {
		return 0.5
	}
	var ts time.Time
	var err error
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		ts, err = time.Parse(layout, published)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0.5
	}
	years := now.Sub(ts).Hours() / (24 * 365.25)
	if years < 0 {
		years = 0
	}
	score := 1 - years/10
	if score < 0.1 {
		score = 0.1
	}
	return score
}

// ImportanceWeights control the segmentation-time scoring blend.
type ImportanceWeights struct {
	Relevance float64 `json:"relevance"`
	Recency   float64 `json:"recency"`
	Authority float64 `json:"authority"`
}

func DefaultImportanceWeights() ImportanceWeights {
	return ImportanceWeights{Relevance: 0.4, Recency: 0.1, Authority: 0.2}
}

// buildSegments wraps results as segments, scores them and sorts by
// importance descending. Relevance prefers a rerank score, then raw
// similarity, then a rank-decay estimate for lexical-only hits.
func buildSegments(results []model.RankedChunk, weights ImportanceWeights, now time.Time) []*ContentSegment {
	segments := make([]*ContentSegment, 0, len(results))
	for pos, res := range results {
		relevance := res.RerankScore
		if relevance == 0 {
			relevance = res.Similarity
		}
		if relevance == 0 {
			relevance = 1 - float64(pos)/float64(len(results))
			if relevance < 0.1 {
				relevance = 0.1
			}
		}
		seg := &ContentSegment{
			Content:    res.Chunk.Content,
			TokenCount: res.Chunk.TokenCount,
			Relevance:  clamp01(relevance),
			Recency:    recencyOf(res.Meta.PublishedDate, now),
			Authority:  authorityOf(res.Meta.DocType),
			Chunk:      res.Chunk,
			Meta:       res.Meta,
		}
		if seg.TokenCount == 0 {
			seg.TokenCount = tokenest.Estimate(seg.Content)
		}
		seg.Importance = seg.Relevance*weights.Relevance +
			seg.Recency*weights.Recency +
			seg.Authority*weights.Authority
		segments = append(segments, seg)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Importance > segments[j].Importance
	})
	return segments
}

func (s *ContentSegment) wordSet() map[string]struct{} {
	if s.words == nil {
		s.words = wordSetOf(s.Content)
	}
	return s.words
}

func wordSetOf(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 1 {
			set[w] = struct{}{}
		}
	}
	return set
}

// jaccard over word sets; empty-vs-empty counts as identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func segmentSimilarity(a, b *ContentSegment) float64 {
	return jaccard(a.wordSet(), b.wordSet())
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
