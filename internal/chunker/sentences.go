package chunker

import (
	"strings"
	"unicode"
)

// minSentenceChars filters fragments too short to carry meaning.
const minSentenceChars = 10

// abbreviations that end with a period but do not end a sentence. The
// splitter re-merges fragments that stop on one of these.
var abbreviations = map[string]bool{
	"dr":     true,
	"mr":     true,
	"mrs":    true,
	"ms":     true,
	"prof":   true,
	"sr":     true,
	"jr":     true,
	"st":     true,
	"vs":     true,
	"etc":    true,
	"e.g":    true,
	"i.e":    true,
	"fig":    true,
	"al":     true, // "et al."
	"no":     true,
	"vol":    true,
	"pp":     true,
	"approx": true,
}

// SplitSentences breaks normalized text on sentence-ending punctuation
// followed by an uppercase start, with a second pass that re-merges splits
// caused by embedded abbreviations. Fragments of 10 characters or fewer,
// or with no letters, are discarded.
func SplitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	var raw []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Swallow a run of terminators ("?!", "...").
		j := i
		for j+1 < len(runes) && (runes[j+1] == '.' || runes[j+1] == '!' || runes[j+1] == '?') {
			j++
		}
		// Boundary only when whitespace plus an uppercase letter follows.
		if j+2 < len(runes) && runes[j+1] == ' ' && unicode.IsUpper(runes[j+2]) {
			raw = append(raw, string(runes[start:j+1]))
			start = j + 2
		}
		i = j
	}
	if start < len(runes) {
		raw = append(raw, string(runes[start:]))
	}

	merged := mergeAbbreviationSplits(raw)

	out := make([]string, 0, len(merged))
	for _, s := range merged {
		s = strings.TrimSpace(s)
		if len(s) <= minSentenceChars {
			continue
		}
		if !containsLetter(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func mergeAbbreviationSplits(sentences []string) []string {
	if len(sentences) < 2 {
		return sentences
	}
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if len(out) > 0 && endsWithAbbreviation(out[len(out)-1]) {
			out[len(out)-1] = out[len(out)-1] + " " + s
			continue
		}
		out = append(out, s)
	}
	return out
}

func endsWithAbbreviation(sentence string) bool {
	trimmed := strings.TrimRight(sentence, ".")
	idx := strings.LastIndexFunc(trimmed, func(r rune) bool {
		return r == ' '
	})
	last := strings.ToLower(trimmed[idx+1:])
	return abbreviations[last]
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
