// Package tokenest approximates token counts from character length. Every
// size invariant downstream (chunk bounds, context budgets, compression
// decisions) is measured with this estimator, so the formula is fixed and
// must stay deterministic. It never calls an external tokenizer.
package tokenest

import (
	"math"
	"strings"
)

// punctuation characters inflate tokenizer output beyond the ~4 chars/token
// baseline, so each one contributes an extra 0.1 tokens.
const (
	charsPerToken    = 4.0
	punctTokenWeight = 0.1
)

const punctChars = ".,;:!?'\"()[]{}<>-_/\\|@#$%^&*+=~`"

// Estimate returns the approximate token count for text: ceil(len/4) plus
// 0.1 per punctuation character, truncated to an integer. Always >= 0.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	base := math.Ceil(float64(len(text)) / charsPerToken)
	punct := 0
	for _, r := range text {
		if strings.ContainsRune(punctChars, r) {
			punct++
		}
	}
	return int(base + float64(punct)*punctTokenWeight)
}
