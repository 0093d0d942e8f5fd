package chunker

import (
	"regexp"
	"strings"

	"github.com/ragstack/ragcore/internal/pkg/tokenest"
)

// Section is a detected heading plus the byte span it owns. Start sits
// at the heading line itself, never after it: section spans tile the
// document exactly, so chunking by section loses no bytes.
type Section struct {
	Title string
	Level int
	Start int // byte offset of the heading line (0 for the preamble)
	End   int // exclusive
}

// headingPattern is one row of the section-detector table. Keeping the
// detectors in a table lets tests enumerate pattern coverage directly.
type headingPattern struct {
	name  string
	re    *regexp.Regexp
	level func(match []string) int
}

var headingPatterns = []headingPattern{
	{
		name: "markdown",
		re:   regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`),
		level: func(m []string) int {
			return len(m[1])
		},
	},
	{
		name: "numbered",
		re:   regexp.MustCompile(`^(\d+(?:\.\d+)*)[.)]\s+\S.*$`),
		level: func(m []string) int {
			return strings.Count(m[1], ".") + 1
		},
	},
	{
		name: "roman",
		re:   regexp.MustCompile(`^(?:X{0,3})(?:IX|IV|V?I{0,3})[.)]\s+\S.*$`),
		level: func(m []string) int {
			return 1
		},
	},
	{
		name: "allcaps",
		re:   regexp.MustCompile(`^[A-Z][A-Z0-9 \t.,:&()-]{3,78}$`),
		level: func(m []string) int {
			return 1
		},
	},
}

var underlineRe = regexp.MustCompile(`^(=+|-+)\s*$`)

func headingTitle(line string) string {
	t := strings.TrimLeft(line, "# \t")
	t = strings.TrimLeft(t, "0123456789.)IVX ")
	t = strings.TrimSpace(t)
	if t == "" {
		return strings.TrimSpace(line)
	}
	return t
}

func matchHeading(line string) (level int, ok bool) {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return 0, false
	}
	for _, p := range headingPatterns {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			if p.name == "roman" && len(trimmed) > 0 && !strings.ContainsAny(trimmed[:1], "IVX") {
				continue
			}
			return p.level(m), true
		}
	}
	return 0, false
}

// DetectSections scans text line by line for heading patterns: markdown
// hashes, numbered sections, roman numerals, ALL-CAPS lines and
// underlined headers. When nothing matches, the whole document is one
// implicit untitled section.
func DetectSections(text string) []Section {
	type rawHeading struct {
		title     string
		level     int
		lineStart int // byte offset of heading line start
	}

	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines)+1)
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line) + 1
	}
	offsets[len(lines)] = len(text)

	var headings []rawHeading
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if level, ok := matchHeading(line); ok {
			headings = append(headings, rawHeading{
				title:     headingTitle(line),
				level:     level,
				lineStart: offsets[i],
			})
			continue
		}
		// Underlined header: a non-empty line whose successor is all '=' or '-'.
		if i+1 < len(lines) && strings.TrimSpace(line) != "" && underlineRe.MatchString(lines[i+1]) {
			level := 1
			if strings.HasPrefix(strings.TrimSpace(lines[i+1]), "-") {
				level = 2
			}
			headings = append(headings, rawHeading{
				title:     strings.TrimSpace(line),
				level:     level,
				lineStart: offsets[i],
			})
			i++
			continue
		}
	}

	if len(headings) == 0 {
		return []Section{{Title: "", Level: 0, Start: 0, End: len(text)}}
	}

	sections := make([]Section, 0, len(headings)+1)
	if headings[0].lineStart > 0 {
		sections = append(sections, Section{Title: "", Level: 0, Start: 0, End: headings[0].lineStart})
	}
	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		sections = append(sections, Section{Title: h.title, Level: h.level, Start: h.lineStart, End: end})
	}
	return sections
}

// shouldAvoidSectionChunking reports whether detected sections look too
// noisy to chunk by. Fragmenting a short document into many tiny sections
// produces low-value chunks, so fall back to a plain token window when:
// more than half the sections are small or empty, more than 10 sections
// exist in a document under 3000 tokens, or the average section is under
// 200 tokens in a document under 2000 tokens.
func shouldAvoidSectionChunking(text string, sections []Section) bool {
	if len(sections) <= 1 {
		return false
	}
	totalTokens := tokenest.Estimate(text)
	smallOrEmpty := 0
	sectionTokens := 0
	for _, s := range sections {
		body := text[s.Start:s.End]
		tokens := tokenest.Estimate(strings.TrimSpace(body))
		sectionTokens += tokens
		if tokens < 50 {
			smallOrEmpty++
		}
	}
	if smallOrEmpty*2 > len(sections) {
		return true
	}
	if len(sections) > 10 && totalTokens < 3000 {
		return true
	}
	avg := sectionTokens / len(sections)
	if avg < 200 && totalTokens < 2000 {
		return true
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
