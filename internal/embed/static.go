package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

const (
	// StaticDimensions is the vector width of the hash embedder.
	StaticDimensions = 256

	// StaticModelName identifies static vectors in persisted indexes.
	StaticModelName = "static-hash-v1"

	// Token hashes carry most of the signal; character trigrams tie
	// morphological variants of the same word together.
	staticTokenWeight   = 0.7
	staticTrigramWeight = 0.3
)

// staticTokenRe matches runs of letters and digits in any script, so
// accented words like "relatório" survive tokenization intact.
var staticTokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// staticStopwords are high-frequency words that carry no topical
// signal. English and Portuguese, since vaults mix both.
var staticStopwords = map[string]struct{}{
	// English
	"the": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
	"by": {}, "from": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "this": {}, "that": {}, "it": {}, "not": {},
	// Portuguese
	"o": {}, "a": {}, "os": {}, "as": {}, "um": {}, "uma": {},
	"e": {}, "ou": {}, "mas": {}, "em": {}, "no": {}, "na": {},
	"nos": {}, "nas": {}, "de": {}, "do": {}, "da": {}, "dos": {},
	"das": {}, "para": {}, "por": {}, "com": {}, "sem": {}, "que": {},
	"se": {}, "ao": {}, "aos": {}, "é": {}, "são": {}, "foi": {},
	"ser": {}, "está": {}, "não": {},
}

// StaticEmbedder derives vectors from token and trigram hashes. It
// needs no external service and always produces the same vector for
// the same text, which keeps indexing and search working when no
// Ollama server is reachable. Retrieval quality is far below a neural
// model; it is a fallback, not a recommendation.
type StaticEmbedder struct {
	mu     sync.Mutex
	closed bool
}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates a hash-based embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed returns the deterministic vector for text.
func (s *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.isClosed() {
		return nil, glerrors.EmbeddingError("embedder is closed", nil)
	}

	vec := make([]float32, StaticDimensions)
	lowered := strings.ToLower(Truncate(text))

	for _, token := range staticTokenRe.FindAllString(lowered, -1) {
		if _, stop := staticStopwords[token]; stop {
			continue
		}
		vec[hashToIndex(token)] += staticTokenWeight

		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			vec[hashToIndex(string(runes[i:i+3]))] += staticTrigramWeight
		}
	}

	return normalizeVector(vec), nil
}

// EmbedBatch embeds each text in turn.
func (s *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns StaticDimensions.
func (s *StaticEmbedder) Dimensions() int {
	return StaticDimensions
}

// ModelName returns StaticModelName.
func (s *StaticEmbedder) ModelName() string {
	return StaticModelName
}

// Available always reports true until Close.
func (s *StaticEmbedder) Available(_ context.Context) bool {
	return !s.isClosed()
}

// Close marks the embedder closed.
func (s *StaticEmbedder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *StaticEmbedder) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// hashToIndex maps a string into a vector slot.
func hashToIndex(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % StaticDimensions)
}
