package contextproc

import (
	"strings"

	"github.com/ragstack/ragcore/internal/chunker"
	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// keyCueWords mark sentences worth keeping when a segment is squeezed
// down to an extractive summary.
var keyCueWords = []string{
	"important", "key", "significant", "critical", "essential",
	"novel", "result", "conclude", "conclusion", "demonstrates",
	"shows", "found", "propose", "introduces",
}

// compressSegments keeps full segments while the budget lasts, then
// replaces the rest with extractive summaries, dropping any summary
// that still does not fit. Each kept segment is charged overhead on
// top of its content tokens, matching the assembly cost of markers
// and separators.
func compressSegments(segments []*ContentSegment, maxTokens, overhead int) []*ContentSegment {
	var out []*ContentSegment
	running := 0
	for _, seg := range segments {
		if running+seg.TokenCount+overhead <= maxTokens {
			out = append(out, seg)
			running += seg.TokenCount + overhead
			continue
		}
		summary := extractiveSummary(seg.Content)
		if summary == "" {
			continue
		}
		tokens := tokenest.Estimate(summary)
		if running+tokens+overhead > maxTokens {
			continue
		}
		compressed := *seg
		compressed.Content = summary
		compressed.TokenCount = tokens
		compressed.words = nil
		out = append(out, &compressed)
		running += tokens + overhead
	}
	if len(out) == 0 && len(segments) > 0 {
		out = segments[:1]
	}
	return out
}

// extractiveSummary keeps the first sentence plus the first later
// sentence carrying a key cue word.
func extractiveSummary(content string) string {
	sentences := chunker.SplitSentences(content)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(content)
		if len(trimmed) > 200 {
			trimmed = trimmed[:200]
		}
		return trimmed
	}
	summary := sentences[0]
	for _, sentence := range sentences[1:] {
		lower := strings.ToLower(sentence)
		cued := false
		for _, cue := range keyCueWords {
			if strings.Contains(lower, cue) {
				cued = true
				break
			}
		}
		if cued {
			summary += " " + sentence
			break
		}
	}
	return summary
}
