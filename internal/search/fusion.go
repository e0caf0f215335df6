package search

import (
	"sort"
)

// DefaultRRFConstant is the standard RRF smoothing parameter. k=60 is
// empirically validated across domains.
const DefaultRRFConstant = 60

// FusedResult is one chunk after reciprocal rank fusion of the keyword
// and vector legs.
type FusedResult struct {
	ChunkID      int64    // chunk rowid
	RRFScore     float64  // combined score, normalized so the top result is 1
	KeywordScore float64  // original BM25-derived score
	KeywordRank  int      // 1-indexed rank in the keyword list, 0 if absent
	VecScore     float64  // original vector similarity
	VecRank      int      // 1-indexed rank in the vector list, 0 if absent
	InBothLists  bool     // chunk appeared in both legs
	MatchedTerms []string // keyword-leg matched terms
}

// RankedChunk is one entry of a retrieval leg handed to fusion: a
// chunk id with that leg's native score, already sorted best-first.
type RankedChunk struct {
	ChunkID int64
	Score   float64
	Terms   []string
}

// RRFFusion combines the keyword and vector legs with Reciprocal Rank
// Fusion:
//
//	RRF_score(d) = Σ weight_i / (k + rank_i)
//
// where rank_i is the 1-indexed position of d in leg i and k smooths
// the head of each list.
type RRFFusion struct {
	K int
}

// NewRRFFusion creates a fusion instance. k <= 0 falls back to 60.
func NewRRFFusion(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse merges the two legs. A chunk present in only one leg still
// receives the other leg's contribution, at rank max(len(keyword),
// len(vector)) + 1, so single-leg hits are penalized rather than
// dropped.
//
// Results sort by RRFScore desc, then in-both-lists first, then
// keyword score desc, then ChunkID asc, so equal inputs always fuse to
// the same order.
func (f *RRFFusion) Fuse(keyword, vector []RankedChunk, weights Weights) []*FusedResult {
	if len(keyword) == 0 && len(vector) == 0 {
		return []*FusedResult{}
	}

	scores := make(map[int64]*FusedResult, len(keyword)+len(vector))

	getOrCreate := func(id int64) *FusedResult {
		if r, ok := scores[id]; ok {
			return r
		}
		r := &FusedResult{ChunkID: id}
		scores[id] = r
		return r
	}

	for rank, rc := range keyword {
		r := getOrCreate(rc.ChunkID)
		r.KeywordScore = rc.Score
		r.KeywordRank = rank + 1
		r.MatchedTerms = rc.Terms
		r.RRFScore += weights.Keyword / float64(f.K+rank+1)
	}

	for rank, rc := range vector {
		r := getOrCreate(rc.ChunkID)
		r.VecScore = rc.Score
		r.VecRank = rank + 1
		r.RRFScore += weights.Semantic / float64(f.K+rank+1)
		if r.KeywordRank > 0 {
			r.InBothLists = true
		}
	}

	missingRank := len(keyword)
	if len(vector) > missingRank {
		missingRank = len(vector)
	}
	missingRank++

	for _, r := range scores {
		if r.KeywordRank == 0 && r.VecRank > 0 {
			r.RRFScore += weights.Keyword / float64(f.K+missingRank)
		}
		if r.VecRank == 0 && r.KeywordRank > 0 {
			r.RRFScore += weights.Semantic / float64(f.K+missingRank)
		}
	}

	results := make([]*FusedResult, 0, len(scores))
	for _, r := range scores {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RRFScore != b.RRFScore {
			return a.RRFScore > b.RRFScore
		}
		if a.InBothLists != b.InBothLists {
			return a.InBothLists
		}
		if a.KeywordScore != b.KeywordScore {
			return a.KeywordScore > b.KeywordScore
		}
		return a.ChunkID < b.ChunkID
	})

	// Scale so the top result scores 1; downstream surfaces treat all
	// scores as "higher is better, max 1".
	if max := results[0].RRFScore; max > 0 {
		for _, r := range results {
			r.RRFScore /= max
		}
	}
	return results
}
