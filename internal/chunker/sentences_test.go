package chunker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSentences_Basic(t *testing.T) {
	text := "The system retrieves documents. It ranks them by relevance. Results are merged afterwards."
	sentences := SplitSentences(text)
	require.Len(t, sentences, 3)
	require.Equal(t, "The system retrieves documents.", sentences[0])
	require.Equal(t, "It ranks them by relevance.", sentences[1])
}

func TestSplitSentences_AbbreviationsStayMerged(t *testing.T) {
	text := "The study was led by Dr. Smith at the institute. Further details are in Fig. 3 of the appendix section."
	sentences := SplitSentences(text)
	require.Len(t, sentences, 2)
	require.Contains(t, sentences[0], "Dr. Smith")
	require.Contains(t, sentences[1], "Fig. 3")
}

func TestSplitSentences_DropsShortFragments(t *testing.T) {
	text := "Ok. Yes. This sentence is long enough to survive the filter entirely."
	sentences := SplitSentences(text)
	require.Len(t, sentences, 1)
}

func TestSplitSentences_DropsNonLetterFragments(t *testing.T) {
	sentences := SplitSentences("12345 67890 11223. Actual words appear in this one sentence only.")
	require.Len(t, sentences, 1)
	require.Contains(t, sentences[0], "Actual words")
}

func TestSplitSentences_QuestionAndExclamation(t *testing.T) {
	text := "Why does fusion help retrieval quality? Because each signal covers blind spots! Combining them is standard practice."
	sentences := SplitSentences(text)
	require.Len(t, sentences, 3)
}

func TestSplitSentences_NormalizesWhitespace(t *testing.T) {
	text := "First   sentence\nhas odd   spacing. Second sentence is completely normal."
	sentences := SplitSentences(text)
	require.Len(t, sentences, 2)
	require.Equal(t, "First sentence has odd spacing.", sentences[0])
}

func TestSplitSentences_Empty(t *testing.T) {
	require.Empty(t, SplitSentences("   "))
	require.Empty(t, SplitSentences(""))
}
