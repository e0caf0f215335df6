// Package search holds the retrieval-side pieces that sit on top of
// the index engine: the query intent classifier, extractive summaries,
// and reciprocal-rank fusion for hybrid (vector + keyword) queries.
// Nothing here touches index state; the engine calls in, never the
// other way around.
package search

// Mode selects which retrieval legs a query runs.
type Mode string

const (
	// ModeVector searches the flat vector index only. The default.
	ModeVector Mode = "vector"

	// ModeKeyword searches the BM25 sidecar only.
	ModeKeyword Mode = "keyword"

	// ModeHybrid runs both legs and fuses them with RRF.
	ModeHybrid Mode = "hybrid"
)

// ParseMode maps a config string onto a Mode, defaulting to vector.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeKeyword:
		return ModeKeyword
	case ModeHybrid:
		return ModeHybrid
	default:
		return ModeVector
	}
}

// Weights balances the two hybrid legs. They should sum to 1.
type Weights struct {
	Keyword  float64
	Semantic float64
}

// DefaultWeights favors the semantic leg; prose vaults gain little
// from keyword-heavy weighting.
func DefaultWeights() Weights {
	return Weights{Keyword: 0.35, Semantic: 0.65}
}

// Result is one retrieved chunk, ready for a caller-facing surface.
type Result struct {
	ChunkID     int64   `json:"chunk_id"`
	Text        string  `json:"text"`
	FilePath    string  `json:"file_path"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	StartChar   int     `json:"start_char"`
	EndChar     int     `json:"end_char"`

	// Score is a normalized similarity, higher is better. For hybrid
	// queries it is the RRF score scaled to the top result.
	Score float64 `json:"score"`

	// Summary replaces Text for oversized results when the caller asks
	// for summarized output; Summarized marks the substitution.
	Summary    string `json:"summary,omitempty"`
	Summarized bool   `json:"summarized,omitempty"`

	// MatchedTerms are the keyword-leg terms that hit, when that leg ran.
	MatchedTerms []string `json:"matched_terms,omitempty"`
}

// Options configures one search call.
type Options struct {
	// K is the maximum number of results (default 3).
	K int

	// Mode selects the retrieval legs (default ModeVector).
	Mode Mode

	// Weights overrides the hybrid leg weights.
	Weights *Weights

	// WithSummaries replaces oversized result text with an extractive
	// summary.
	WithSummaries bool

	// MaxChunkChars is the length above which a result is summarized
	// (default 1500; only used with WithSummaries).
	MaxChunkChars int

	// SummaryMaxChars caps summary length (default 1000).
	SummaryMaxChars int
}

// Defaults matching the engine configuration defaults.
const (
	DefaultK               = 3
	DefaultMaxChunkChars   = 1500
	DefaultSummaryMaxChars = 1000
)

// WithDefaults fills zero-value fields.
func (o Options) WithDefaults() Options {
	if o.K <= 0 {
		o.K = DefaultK
	}
	if o.Mode == "" {
		o.Mode = ModeVector
	}
	if o.MaxChunkChars <= 0 {
		o.MaxChunkChars = DefaultMaxChunkChars
	}
	if o.SummaryMaxChars <= 0 {
		o.SummaryMaxChars = DefaultSummaryMaxChars
	}
	return o
}
