// Package embed turns document text into vectors for semantic search.
//
// Two providers exist. OllamaEmbedder talks to a local Ollama server
// and is the default when one is reachable. StaticEmbedder derives
// deterministic hash-based vectors with no external service and is the
// fallback. CachedEmbedder wraps either one with an LRU so repeated
// queries skip the provider entirely.
package embed

import (
	"context"
	"math"
	"unicode/utf8"
)

const (
	// MaxEmbedChars bounds the text sent to a provider in one request.
	// Longer inputs are truncated. Document chunks stay well under this;
	// the cap protects against oversized ad-hoc queries.
	MaxEmbedChars = 6000

	// DefaultBatchSize is the number of texts per batch request.
	DefaultBatchSize = 32

	// DefaultDimensions matches nomic-embed-text, the default model.
	DefaultDimensions = 768

	// DefaultMaxRetries for transient provider failures.
	DefaultMaxRetries = 3
)

// Embedder converts text into fixed-width vectors.
//
// Implementations return unit-length vectors so that L2 distance and
// cosine similarity rank identically.
type Embedder interface {
	// Embed returns the vector for a single text. Empty or
	// whitespace-only text yields a zero vector, not an error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of every vector this embedder produces.
	Dimensions() int

	// ModelName identifies the underlying model. Persisted alongside
	// the vector index so a model switch is detectable on load.
	ModelName() string

	// Available reports whether the provider can serve requests now.
	Available(ctx context.Context) bool

	// Close releases provider resources. Safe to call more than once.
	Close() error
}

// Truncate bounds text to MaxEmbedChars characters.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxEmbedChars {
		return text
	}
	r := []rune(text)
	return string(r[:MaxEmbedChars])
}

// EstimateTokens approximates the token count of text for usage
// accounting. Four characters per token is close enough across the
// embedding models we target.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// normalizeVector scales vec to unit length in place and returns it.
// A zero vector is returned unchanged.
func normalizeVector(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sumSquares))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
