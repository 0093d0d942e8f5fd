package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ragstack/ragcore/internal/ai"
)

// BoundaryKind labels why a chunk boundary was raised between sentences.
type BoundaryKind string

const (
	BoundaryTopicShift     BoundaryKind = "topic_shift"
	BoundarySimilarityDrop BoundaryKind = "similarity_drop"
	BoundarySectionBreak   BoundaryKind = "section_break"
)

// Boundary sits before the sentence at Pos.
type Boundary struct {
	Pos   int
	Kind  BoundaryKind
	Score float64
}

const (
	// topicShiftMargin is how far the local average must exceed a dipping
	// adjacent similarity before the dip counts as a topic shift.
	topicShiftMargin = 0.15
	// topicShiftCap bounds topic-shift confidence.
	topicShiftCap = 0.9
	// localWindow is the ±N neighborhood used for the local average.
	localWindow = 2
	// consolidateDistance merges boundaries within this many sentence
	// positions, keeping the higher score.
	consolidateDistance = 2
)

var listMarkerRe = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s+`)

// detectBoundaries combines embedding-similarity dips with structural
// markers. similarities[i] is the cosine similarity between sentences i
// and i+1.
func detectBoundaries(sentences []string, similarities []float64, threshold, floor float64) []Boundary {
	var boundaries []Boundary
	for i, sim := range similarities {
		localAvg := localAverage(similarities, i)
		if sim < threshold && localAvg-sim > topicShiftMargin {
			score := 0.5 + (localAvg - sim)
			if score > topicShiftCap {
				score = topicShiftCap
			}
			boundaries = append(boundaries, Boundary{Pos: i + 1, Kind: BoundaryTopicShift, Score: score})
		}
		if sim < floor {
			boundaries = append(boundaries, Boundary{Pos: i + 1, Kind: BoundarySimilarityDrop, Score: 0.95})
		}
	}
	for i, sentence := range sentences {
		if i == 0 {
			continue
		}
		if isStructuralStart(sentence) {
			boundaries = append(boundaries, Boundary{Pos: i, Kind: BoundarySectionBreak, Score: 1.0})
		}
	}
	return consolidateBoundaries(boundaries)
}

func localAverage(similarities []float64, i int) float64 {
	lo := i - localWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + localWindow
	if hi > len(similarities)-1 {
		hi = len(similarities) - 1
	}
	sum := 0.0
	for j := lo; j <= hi; j++ {
		sum += similarities[j]
	}
	return sum / float64(hi-lo+1)
}

func isStructuralStart(sentence string) bool {
	if _, ok := matchHeading(strings.TrimSpace(sentence)); ok {
		return true
	}
	return listMarkerRe.MatchString(sentence)
}

// consolidateBoundaries sorts by position and collapses boundaries within
// consolidateDistance of each other, keeping the highest score.
func consolidateBoundaries(boundaries []Boundary) []Boundary {
	if len(boundaries) == 0 {
		return nil
	}
	sort.SliceStable(boundaries, func(i, j int) bool {
		return boundaries[i].Pos < boundaries[j].Pos
	})
	out := []Boundary{boundaries[0]}
	for _, b := range boundaries[1:] {
		last := &out[len(out)-1]
		if b.Pos-last.Pos <= consolidateDistance {
			if b.Score > last.Score {
				*last = b
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

// adjacentSimilarities computes cosine similarity for each neighboring
// sentence pair from their embedding batch items.
func adjacentSimilarities(items []ai.BatchItem) []float64 {
	if len(items) < 2 {
		return nil
	}
	sims := make([]float64, len(items)-1)
	for i := 0; i < len(items)-1; i++ {
		sims[i] = ai.CosineSimilarity(items[i].Vector, items[i+1].Vector)
	}
	return sims
}
