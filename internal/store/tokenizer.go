package store

import (
	"regexp"
	"strings"
)

// textTokenRegex matches runs of letters and digits in any script, so
// accented Portuguese words tokenize whole.
var textTokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// TokenizeText splits prose into lowercase tokens, dropping tokens
// shorter than minLength. Numbers survive so document identifiers and
// dates remain searchable.
func TokenizeText(text string, minLength int) []string {
	if minLength <= 0 {
		minLength = 2
	}

	words := textTokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		lower := strings.ToLower(word)
		if len([]rune(lower)) >= minLength {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

// FilterStopWords removes stop words from a token list.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := stopWords[token]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// BuildStopWordMap converts a stop word list to a lookup map.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
