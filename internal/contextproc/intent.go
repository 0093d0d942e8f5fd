package contextproc

import "regexp"

// Intent selects the ordering strategy for selection and assembly. It is
// coarser than retrieval-time intent and may be passed in by the caller;
// when absent it is detected from the query text.
type Intent string

const (
	IntentDefault     Intent = "default"
	IntentComparative Intent = "comparative"
	IntentTemporal    Intent = "temporal"
	IntentFactual     Intent = "factual"
	IntentExploratory Intent = "exploratory"
	IntentCausal      Intent = "causal"
)

type intentCue struct {
	re     *regexp.Regexp
	intent Intent
}

// First match wins, so more specific cues sit above broader ones.
var intentCues = []intentCue{
	{regexp.MustCompile(`(?i)\b(compare|comparison|versus|vs\.?|difference|differences|better|worse)\b`), IntentComparative},
	{regexp.MustCompile(`(?i)\b(why|because|cause[sd]?|reason|leads? to|results? in|effect)\b`), IntentCausal},
	{regexp.MustCompile(`(?i)\b(recent|latest|newest|timeline|history|evolution|over time|when)\b`), IntentTemporal},
	{regexp.MustCompile(`(?i)\b(what is|what are|who|define|definition|which|list)\b`), IntentFactual},
	{regexp.MustCompile(`(?i)\b(overview|explore|survey|related|landscape|broad|everything about)\b`), IntentExploratory},
}

func DetectIntent(query string) Intent {
	for _, cue := range intentCues {
		if cue.re.MatchString(query) {
			return cue.intent
		}
	}
	return IntentDefault
}
