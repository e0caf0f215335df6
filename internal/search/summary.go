package search

import (
	"regexp"
	"sort"
	"strings"
)

// Signal words that raise a sentence's score. Matched as substrings of
// the lowercased sentence.
var (
	emphasisWords   = []string{"important", "key", "critical", "essential", "main", "primary"}
	exampleWords    = []string{"example", "instance", "case", "scenario"}
	definitionWords = []string{"definition", "concept", "principle", "rule"}
	contrastWords   = []string{"however", "but", "although", "nevertheless"}
)

var digitPattern = regexp.MustCompile(`\d`)

// Summarize builds an extractive summary of text no longer than maxLen
// bytes. Sentences are scored by signal words and the highest-scoring
// ones are taken greedily, in score order, until the budget is spent.
// Text that already fits is returned unchanged; if no sentence fits, a
// truncated prefix is returned.
func Summarize(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSummaryMaxChars
	}
	if len(text) <= maxLen {
		return text
	}

	sentences := strings.Split(strings.ReplaceAll(text, "\n", " "), ". ")

	type scored struct {
		sentence string
		score    int
		order    int
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		ranked = append(ranked, scored{sentence: s, score: scoreSentence(s), order: i})
	}

	// Stable by original position among equal scores, so summaries are
	// deterministic and read in document order when scores tie.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	var b strings.Builder
	for _, r := range ranked {
		if b.Len()+len(r.sentence)+2 > maxLen {
			break
		}
		b.WriteString(r.sentence)
		b.WriteString(". ")
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return truncate(text, maxLen) + "..."
	}
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}

func scoreSentence(sentence string) int {
	lower := strings.ToLower(sentence)
	score := 0
	if containsAny(lower, emphasisWords) {
		score += 3
	}
	if containsAny(lower, exampleWords) {
		score += 2
	}
	if containsAny(lower, definitionWords) {
		score += 2
	}
	if containsAny(lower, contrastWords) {
		score++
	}
	// Numbers and dates tend to carry the concrete facts.
	if digitPattern.MatchString(sentence) {
		score++
	}
	return score
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// truncate cuts text at maxLen bytes without splitting a UTF-8 rune.
func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// ApplySummaries fills the summary fields on results: oversized text gets an
// extractive summary and the summarized flag, short text passes
// through as its own summary.
func ApplySummaries(results []*Result, maxChunkLen, summaryMax int) {
	if maxChunkLen <= 0 {
		maxChunkLen = DefaultMaxChunkChars
	}
	if summaryMax <= 0 {
		summaryMax = maxChunkLen
	}
	for _, r := range results {
		if len(r.Text) > maxChunkLen {
			r.Summary = Summarize(r.Text, summaryMax)
			r.Summarized = true
		} else {
			r.Summary = r.Text
			r.Summarized = false
		}
	}
}
