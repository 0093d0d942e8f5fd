package retrieval

import "regexp"

// QueryIntent drives which search branches run and how results are
// ordered downstream.
type QueryIntent string

const (
	IntentKeyword  QueryIntent = "keyword"
	IntentSemantic QueryIntent = "semantic"
	IntentHybrid   QueryIntent = "hybrid"
)

// intentPattern pairs a compiled indicator with the intent it votes for.
// Kept as an explicit table so tests can enumerate pattern coverage.
type intentPattern struct {
	re     *regexp.Regexp
	intent QueryIntent
}

var intentPatterns = []intentPattern{
	// Keyword indicators: the user is hunting for a specific token.
	{regexp.MustCompile(`(?i)\b(exact|exactly|specific|specifically|named|called|titled)\b`), IntentKeyword},
	{regexp.MustCompile(`\b[A-Z]{2,}\b`), IntentKeyword},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), IntentKeyword},
	{regexp.MustCompile(`\bv?\d+\.\d+(?:\.\d+)?\b`), IntentKeyword},
	{regexp.MustCompile(`"[^"]+"`), IntentKeyword},
	{regexp.MustCompile(`\b(19|20)\d{2}\b`), IntentKeyword},

	// Semantic indicators: the user wants an explanation or comparison.
	{regexp.MustCompile(`(?i)\b(explain|how|why|describe|understand|meaning|what is|what are)\b`), IntentSemantic},
	{regexp.MustCompile(`(?i)\b(difference|differences|similar|similarity|compare|comparison|versus|vs)\b`), IntentSemantic},
	{regexp.MustCompile(`(?i)\b(process|approach|method|concept|overview|relationship|relate|works?)\b`), IntentSemantic},
}

// ClassifyIntent counts indicator hits per category; the majority wins
// and ties, including no hits at all, resolve to hybrid.
func ClassifyIntent(query string) QueryIntent {
	var keyword, semantic int
	for _, p := range intentPatterns {
		n := len(p.re.FindAllString(query, -1))
		switch p.intent {
		case IntentKeyword:
			keyword += n
		case IntentSemantic:
			semantic += n
		}
	}
	switch {
	case keyword > semantic:
		return IntentKeyword
	case semantic > keyword:
		return IntentSemantic
	default:
		return IntentHybrid
	}
}
