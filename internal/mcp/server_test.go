package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
)

// fakeEngine scripts the index surface for handler tests.
type fakeEngine struct {
	results   []*search.Result
	searchErr error
	gotQuery  string
	gotOpts   search.Options

	updateErr error
	updates   int

	stats    *index.Stats
	statsErr error

	excluded []string
	removed  bool
}

func (f *fakeEngine) Search(ctx context.Context, query string, opts search.Options) ([]*search.Result, error) {
	f.gotQuery = query
	f.gotOpts = opts
	return f.results, f.searchErr
}

func (f *fakeEngine) UpdateIndex(ctx context.Context) error {
	f.updates++
	return f.updateErr
}

func (f *fakeEngine) Stats(ctx context.Context) (*index.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeEngine) AddExcludedPath(ctx context.Context, segment string) error {
	f.excluded = append(f.excluded, segment)
	return nil
}

func (f *fakeEngine) RemoveExcludedPath(ctx context.Context, segment string) (bool, error) {
	for i, seg := range f.excluded {
		if seg == segment {
			f.excluded = append(f.excluded[:i], f.excluded[i+1:]...)
			f.removed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEngine) ExcludedPaths(ctx context.Context) ([]string, error) {
	return f.excluded, nil
}

func (f *fakeEngine) State() index.State    { return index.StateIdle }
func (f *fakeEngine) Size() int             { return len(f.results) }
func (f *fakeEngine) LastUpdate() time.Time { return time.Unix(1700000000, 0) }

func newTestServer(t *testing.T, eng Engine) *Server {
	t.Helper()
	s, err := NewServer(eng, config.NewConfig())
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestNewServer_Info(t *testing.T) {
	s := newTestServer(t, &fakeEngine{})
	name, _ := s.Info()
	assert.Equal(t, "Gladys", name)
	assert.NotNil(t, s.MCPServer())
}

func TestVaultSearch(t *testing.T) {
	eng := &fakeEngine{results: []*search.Result{
		{FilePath: "notes/a.md", Text: "alpha", TotalChunks: 1, Score: 0.8},
	}}
	s := newTestServer(t, eng)

	result, output, err := s.handleVaultSearch(context.Background(), nil, SearchInput{
		Query: "alpha",
		K:     5,
		Mode:  "hybrid",
	})
	require.NoError(t, err)

	assert.Equal(t, "alpha", eng.gotQuery)
	assert.Equal(t, 5, eng.gotOpts.K)
	assert.Equal(t, search.ModeHybrid, eng.gotOpts.Mode)

	require.Len(t, output.Results, 1)
	assert.Equal(t, "notes/a.md", output.Results[0].FilePath)
	assert.Equal(t, "alpha", output.Results[0].Text)

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
}

func TestVaultSearch_DefaultsKFromConfig(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestServer(t, eng)

	_, _, err := s.handleVaultSearch(context.Background(), nil, SearchInput{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, s.config.Search.MaxResults, eng.gotOpts.K)
}

func TestVaultSearch_BlankQuery(t *testing.T) {
	s := newTestServer(t, &fakeEngine{})

	_, _, err := s.handleVaultSearch(context.Background(), nil, SearchInput{Query: "   "})
	require.Error(t, err)
	var merr *MCPError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrCodeInvalidParams, merr.Code)
}

func TestVaultSearch_KOutOfRange(t *testing.T) {
	s := newTestServer(t, &fakeEngine{})

	_, _, err := s.handleVaultSearch(context.Background(), nil, SearchInput{Query: "q", K: 500})
	require.Error(t, err)
	var merr *MCPError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrCodeInvalidParams, merr.Code)
}

func TestVaultSearch_SummarizedResultCarriesSummary(t *testing.T) {
	eng := &fakeEngine{results: []*search.Result{
		{FilePath: "notes/a.md", Text: "long", Summary: "short", Summarized: true, TotalChunks: 1},
	}}
	s := newTestServer(t, eng)

	_, output, err := s.handleVaultSearch(context.Background(), nil, SearchInput{Query: "q", WithSummaries: true})
	require.NoError(t, err)

	assert.True(t, eng.gotOpts.WithSummaries)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "short", output.Results[0].Text)
	assert.True(t, output.Results[0].Summarized)
}

func TestVaultSearch_EngineErrorMapped(t *testing.T) {
	eng := &fakeEngine{searchErr: index.ErrUpdateInProgress}
	s := newTestServer(t, eng)

	_, _, err := s.handleVaultSearch(context.Background(), nil, SearchInput{Query: "q"})
	var merr *MCPError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrCodeUpdateBusy, merr.Code)
}

func TestVaultUpdate(t *testing.T) {
	eng := &fakeEngine{results: []*search.Result{{}, {}}}
	s := newTestServer(t, eng)

	_, output, err := s.handleVaultUpdate(context.Background(), nil, UpdateInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, eng.updates)
	assert.Equal(t, string(index.StateIdle), output.State)
	assert.Equal(t, 2, output.IndexSize)
	assert.NotEmpty(t, output.Duration)
}

func TestVaultUpdate_Busy(t *testing.T) {
	eng := &fakeEngine{updateErr: index.ErrUpdateInProgress}
	s := newTestServer(t, eng)

	_, _, err := s.handleVaultUpdate(context.Background(), nil, UpdateInput{})
	var merr *MCPError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrCodeUpdateBusy, merr.Code)
}

func TestVaultStats(t *testing.T) {
	eng := &fakeEngine{stats: &index.Stats{State: "idle", UniqueFiles: 3}}
	s := newTestServer(t, eng)

	result, stats, err := s.handleVaultStats(context.Background(), nil, StatsInput{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.UniqueFiles)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
}

func TestVaultStats_InconsistentIndex(t *testing.T) {
	eng := &fakeEngine{statsErr: index.ErrUpdateInProgress}
	s := newTestServer(t, eng)

	_, _, err := s.handleVaultStats(context.Background(), nil, StatsInput{})
	assert.Error(t, err)
}

func TestVaultExclude_AddRemoveList(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestServer(t, eng)
	ctx := context.Background()

	_, output, err := s.handleVaultExclude(ctx, nil, ExcludeInput{Action: "add", Segment: "Private"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Private"}, output.Excluded)

	_, output, err = s.handleVaultExclude(ctx, nil, ExcludeInput{Action: "list"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Private"}, output.Excluded)
	assert.False(t, output.Removed)

	_, output, err = s.handleVaultExclude(ctx, nil, ExcludeInput{Action: "remove", Segment: "Private"})
	require.NoError(t, err)
	assert.True(t, output.Removed)
	assert.Empty(t, output.Excluded)
}

func TestVaultExclude_RemoveUnknownSegment(t *testing.T) {
	s := newTestServer(t, &fakeEngine{})

	_, output, err := s.handleVaultExclude(context.Background(), nil, ExcludeInput{Action: "remove", Segment: "Nope"})
	require.NoError(t, err)
	assert.False(t, output.Removed)
}

func TestVaultExclude_Validation(t *testing.T) {
	s := newTestServer(t, &fakeEngine{})
	ctx := context.Background()

	for _, input := range []ExcludeInput{
		{Action: "add"},
		{Action: "remove", Segment: "  "},
		{Action: "purge", Segment: "x"},
	} {
		_, _, err := s.handleVaultExclude(ctx, nil, input)
		var merr *MCPError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, ErrCodeInvalidParams, merr.Code)
	}
}
