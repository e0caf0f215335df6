package index

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/IgorArodrigues/Gladys-IA/internal/cache"
	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
)

// legOverfetch widens each hybrid leg beyond k so fusion has real
// overlap to work with.
const legOverfetch = 2

// Search retrieves the top chunks for a query. An empty or
// uninitialized index yields an empty slice, not an error. When the
// embedding provider fails and a keyword index is configured, vector
// and hybrid queries degrade to keyword-only with a warning.
func (e *Engine) Search(ctx context.Context, query string, opts search.Options) ([]*search.Result, error) {
	if e.State() == StateInconsistent {
		return nil, glerrors.RebuildError("index is inconsistent; restart to recover", nil)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []*search.Result{}, nil
	}
	opts = opts.WithDefaults()

	var results []*search.Result
	var err error
	switch opts.Mode {
	case search.ModeKeyword:
		results, err = e.keywordSearch(ctx, query, opts.K)
	case search.ModeHybrid:
		results, err = e.hybridSearch(ctx, query, opts)
	default:
		results, err = e.vectorSearch(ctx, query, opts.K)
		if err != nil && e.keyword != nil {
			e.logger.Warn("vector search failed, degrading to keyword", "error", err)
			results, err = e.keywordSearch(ctx, query, opts.K)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.WithSummaries {
		search.ApplySummaries(results, opts.MaxChunkChars, opts.SummaryMaxChars)
	}
	return results, nil
}

// SearchWithSummaries is Search with oversized results replaced by
// extractive summaries.
func (e *Engine) SearchWithSummaries(ctx context.Context, query string, k, maxChunkLen int) ([]*search.Result, error) {
	return e.Search(ctx, query, search.Options{
		K:               k,
		Mode:            search.ModeVector,
		WithSummaries:   true,
		MaxChunkChars:   maxChunkLen,
		SummaryMaxChars: e.cfg.Search.SummaryMaxChars,
	})
}

// vectorSearch runs the semantic leg and resolves positions to chunks.
func (e *Engine) vectorSearch(ctx context.Context, query string, k int) ([]*search.Result, error) {
	ranked, err := e.vectorLeg(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return e.resolve(ctx, ranked, nil)
}

// keywordSearch runs the BM25 leg alone.
func (e *Engine) keywordSearch(ctx context.Context, query string, k int) ([]*search.Result, error) {
	ranked, err := e.keywordLeg(ctx, query, k)
	if err != nil {
		return nil, err
	}
	terms := make(map[int64][]string, len(ranked))
	for _, rc := range ranked {
		terms[rc.ChunkID] = rc.Terms
	}
	return e.resolve(ctx, ranked, terms)
}

// hybridSearch runs both legs in parallel and fuses them. A failing
// vector leg degrades to keyword-only rather than failing the query.
func (e *Engine) hybridSearch(ctx context.Context, query string, opts search.Options) ([]*search.Result, error) {
	if e.keyword == nil {
		return e.vectorSearch(ctx, query, opts.K)
	}

	fetch := opts.K * legOverfetch
	var vecRanked, kwRanked []search.RankedChunk
	var vecErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Captured separately: a vector failure degrades, it does not
		// cancel the keyword leg.
		vecRanked, vecErr = e.vectorLeg(gctx, query, fetch)
		return nil
	})
	g.Go(func() error {
		var err error
		kwRanked, err = e.keywordLeg(gctx, query, fetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if vecErr != nil {
		e.logger.Warn("vector leg failed, fusing keyword results only", "error", vecErr)
		vecRanked = nil
	}

	weights := search.Weights{
		Keyword:  e.cfg.Search.BM25Weight,
		Semantic: e.cfg.Search.SemanticWeight,
	}
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	fusion := search.NewRRFFusion(e.cfg.Search.RRFConstant)
	fused := fusion.Fuse(kwRanked, vecRanked, weights)
	if len(fused) > opts.K {
		fused = fused[:opts.K]
	}

	ranked := make([]search.RankedChunk, len(fused))
	terms := make(map[int64][]string, len(fused))
	for i, f := range fused {
		ranked[i] = search.RankedChunk{ChunkID: f.ChunkID, Score: f.RRFScore}
		terms[f.ChunkID] = f.MatchedTerms
	}
	return e.resolve(ctx, ranked, terms)
}

// vectorLeg embeds the query and searches the flat index, translating
// positions to chunk ids through the healed parallel list.
func (e *Engine) vectorLeg(ctx context.Context, query string, k int) ([]search.RankedChunk, error) {
	qvec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, glerrors.EmbeddingError("embed query", err)
	}

	idx, ids, n := e.servedPair()
	if n == 0 {
		return nil, nil
	}

	matches, err := idx.Search(qvec, k)
	if err != nil {
		return nil, glerrors.InternalError("vector search", err)
	}

	ranked := make([]search.RankedChunk, 0, len(matches))
	for _, m := range matches {
		// Positions at or past the consistent length belong to slots
		// the guard no longer trusts.
		if m.Position >= n {
			continue
		}
		ranked = append(ranked, search.RankedChunk{
			ChunkID: ids[m.Position],
			Score:   float64(m.Score),
		})
	}
	return ranked, nil
}

// keywordLeg queries the BM25 sidecar.
func (e *Engine) keywordLeg(ctx context.Context, query string, k int) ([]search.RankedChunk, error) {
	if e.keyword == nil {
		return nil, glerrors.ValidationError("keyword search is not configured", nil)
	}
	matches, err := e.keyword.Search(ctx, query, k)
	if err != nil {
		return nil, glerrors.StoreError("keyword search", err)
	}

	ranked := make([]search.RankedChunk, len(matches))
	for i, m := range matches {
		ranked[i] = search.RankedChunk{ChunkID: m.ChunkID, Score: m.Score, Terms: m.MatchedTerms}
	}
	return ranked, nil
}

// resolve turns ranked chunk ids into full results, read-through the
// hot chunk cache. Ids with no row behind them (mid-cycle deletions)
// are silently dropped.
func (e *Engine) resolve(ctx context.Context, ranked []search.RankedChunk, terms map[int64][]string) ([]*search.Result, error) {
	results := make([]*search.Result, 0, len(ranked))

	for _, rc := range ranked {
		entry, ok := e.cache.Get(rc.ChunkID)
		if !ok {
			rec, err := e.store.GetChunk(ctx, rc.ChunkID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, glerrors.StoreError("load chunk", err)
			}
			entry = cache.Entry{
				Text:        rec.Text,
				FilePath:    rec.FilePath,
				ChunkIndex:  rec.ChunkIndex,
				TotalChunks: rec.TotalChunks,
				StartChar:   rec.StartChar,
				EndChar:     rec.EndChar,
			}
			e.cache.Put(rc.ChunkID, entry)
		}

		results = append(results, &search.Result{
			ChunkID:      rc.ChunkID,
			Text:         entry.Text,
			FilePath:     entry.FilePath,
			ChunkIndex:   entry.ChunkIndex,
			TotalChunks:  entry.TotalChunks,
			StartChar:    entry.StartChar,
			EndChar:      entry.EndChar,
			Score:        rc.Score,
			MatchedTerms: terms[rc.ChunkID],
		})
	}

	return results, nil
}
