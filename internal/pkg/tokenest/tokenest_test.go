package tokenest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimate_Empty(t *testing.T) {
	require.Equal(t, 0, Estimate(""))
}

func TestEstimate_PlainText(t *testing.T) {
	// 8 chars, no punctuation: ceil(8/4) = 2
	require.Equal(t, 2, Estimate("abcdefgh"))
	// 9 chars rounds up
	require.Equal(t, 3, Estimate("abcdefghi"))
}

func TestEstimate_PunctuationInflates(t *testing.T) {
	// 40 chars base = 10 tokens; 10 periods add 10*0.1 = 1
	text := strings.Repeat("abc.", 10)
	require.Equal(t, 11, Estimate(text))
}

func TestEstimate_Deterministic(t *testing.T) {
	text := "The quick brown fox, jumping over the lazy dog!"
	first := Estimate(text)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Estimate(text))
	}
}

func TestEstimate_TwelveHundredCharsUnderSingleChunkThreshold(t *testing.T) {
	// A 1200 character plain document estimates around 300 tokens, well
	// under the 1000 token single-chunk threshold used by the chunker.
	text := strings.Repeat("word and more words here align ok ", 36)[:1200]
	got := Estimate(text)
	require.GreaterOrEqual(t, got, 290)
	require.LessOrEqual(t, got, 320)
}
