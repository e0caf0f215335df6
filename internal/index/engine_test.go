package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/embed"
	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
)

type engineFixture struct {
	dir    string
	store  *store.SQLiteStore
	engine *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	dir := t.TempDir()
	st, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	kw, err := store.NewKeywordIndex(st.DB(), store.DefaultKeywordConfig())
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.Vault.Path = dir

	eng, err := New(Config{
		Vault:        cfg,
		Store:        st,
		Embedder:     embed.NewStaticEmbedder(),
		Keyword:      kw,
		SnapshotPath: filepath.Join(t.TempDir(), "index.snap"),
	})
	require.NoError(t, err)

	return &engineFixture{dir: dir, store: st, engine: eng}
}

func (f *engineFixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *engineFixture) update(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.UpdateIndex(context.Background()))
}

// invariant asserts the parallel pair after a completed cycle.
func (f *engineFixture) invariant(t *testing.T) {
	t.Helper()
	f.engine.dataMu.RLock()
	defer f.engine.dataMu.RUnlock()
	assert.Equal(t, f.engine.index.Size(), len(f.engine.chunkIDs),
		"chunk id list must parallel the index")
}

func TestEngine_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Vault: config.NewConfig()})
	assert.Error(t, err)

	_, err = New(Config{Vault: config.NewConfig(), Store: &failingStore{}})
	assert.Error(t, err)
}

func TestEngine_UpdateIndexesNewFiles(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "infra.md", "Kubernetes deployment scaling requires careful resource limits.")
	f.write(t, "kitchen.md", "Banana bread recipe with walnuts and cinnamon.")

	f.update(t)

	assert.Equal(t, StateIdle, f.engine.State())
	assert.Equal(t, 2, f.engine.Size())
	f.invariant(t)
	assert.False(t, f.engine.LastUpdate().IsZero())

	results, err := f.engine.Search(context.Background(), "kubernetes scaling", search.Options{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "infra.md", results[0].FilePath)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestEngine_SingleChunkForSmallFile(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "short.md", strings.Repeat("word ", 100)) // ~500 chars

	f.update(t)

	doc, err := f.store.GetDocument(context.Background(), "short.md")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, 1, f.engine.Size())
}

func TestEngine_SecondCycleIsNoop(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "a.md", "stable content")
	f.update(t)
	last := f.engine.LastUpdate()

	f.update(t)

	// Nothing changed: no rebuild, same pair, same timestamp.
	assert.True(t, f.engine.LastUpdate().Equal(last))
	assert.Equal(t, 1, f.engine.Size())
}

func TestEngine_RemovedFileDisappears(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "doomed.md", "Ephemeral notes about xylophone maintenance.")
	f.update(t)
	require.Equal(t, 1, f.engine.Size())

	require.NoError(t, os.Remove(filepath.Join(f.dir, "doomed.md")))
	f.update(t)

	assert.Zero(t, f.engine.Size())
	f.invariant(t)

	exists, err := f.store.FileExists(context.Background(), "doomed.md")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.store.GetDocument(context.Background(), "doomed.md")
	assert.ErrorIs(t, err, store.ErrNotFound)

	results, err := f.engine.Search(context.Background(), "xylophone", search.Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_ModifiedFileReindexes(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "note.md", "Original text about quasar astronomy observations.")
	f.update(t)

	f.write(t, "note.md", "Rewritten text about volcano geology fieldwork.")
	f.update(t)

	f.invariant(t)

	results, err := f.engine.Search(context.Background(), "volcano geology", search.Options{K: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "volcano")

	// Old chunk rows are gone, not shadowed.
	chunks, err := f.store.ListChunksByFile(context.Background(), "note.md")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "volcano")
}

func TestEngine_SearchKLargerThanPopulation(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "one.md", "first document")
	f.write(t, "two.md", "second document")
	f.update(t)

	results, err := f.engine.Search(context.Background(), "document", search.Options{K: 50})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEngine_SearchEmptyIndex(t *testing.T) {
	f := newEngineFixture(t)

	results, err := f.engine.Search(context.Background(), "anything", search.Options{})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.engine.Search(context.Background(), "   ", search.Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_HybridSearch(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "contract.md", "The payment deadline is thirty days after invoice receipt.")
	f.write(t, "recipe.md", "Preheat the oven and whisk the eggs with sugar.")
	f.update(t)

	results, err := f.engine.Search(context.Background(), "payment deadline",
		search.Options{K: 2, Mode: search.ModeHybrid})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "contract.md", results[0].FilePath)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9, "top hybrid score is normalized to 1")
	assert.NotEmpty(t, results[0].MatchedTerms)
}

func TestEngine_KeywordSearch(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "a.md", "zeppelin airship history")
	f.update(t)

	results, err := f.engine.Search(context.Background(), "zeppelin",
		search.Options{Mode: search.ModeKeyword})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].MatchedTerms, "zeppelin")
}

func TestEngine_SearchWithSummaries(t *testing.T) {
	f := newEngineFixture(t)
	long := strings.Repeat("An important clause sits in this sentence of the agreement. ", 30)
	f.write(t, "long.md", long)
	f.update(t)

	results, err := f.engine.SearchWithSummaries(context.Background(), "important clause agreement", 3, 200)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.True(t, results[0].Summarized)
	assert.NotEmpty(t, results[0].Summary)
}

func TestEngine_SingleFlight(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.beginCycle())
	err := f.engine.UpdateIndex(context.Background())
	assert.ErrorIs(t, err, ErrUpdateInProgress)

	f.engine.setState(StateIdle)
	require.NoError(t, f.engine.UpdateIndex(context.Background()))
}

func TestEngine_ConsistencyGuardTruncates(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "a.md", "guarded content")
	f.update(t)

	// Simulate a desync: an id with no vector behind it.
	f.engine.dataMu.Lock()
	f.engine.chunkIDs = append(f.engine.chunkIDs, 9999)
	f.engine.dataMu.Unlock()

	n := f.engine.consistentLength()
	assert.Equal(t, f.engine.Size(), n)
	f.invariant(t)

	// Reads keep working after the heal.
	results, err := f.engine.Search(context.Background(), "guarded", search.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestEngine_VerifyReportsDrift(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "a.md", "verified content")
	f.update(t)

	report, err := f.engine.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent())

	f.engine.dataMu.Lock()
	f.engine.chunkIDs[0] = 424242
	f.engine.dataMu.Unlock()

	report, err = f.engine.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, []int64{424242}, report.Orphans)
	assert.Len(t, report.Missing, 1)
}

func TestEngine_SnapshotSurvivesRestart(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "persist.md", "Snapshots outlive the process that wrote them.")
	f.update(t)
	require.Equal(t, 1, f.engine.Size())

	// A second engine over the same store and snapshot path serves
	// searches without running a cycle first.
	cfg := config.NewConfig()
	cfg.Vault.Path = f.dir
	restarted, err := New(Config{
		Vault:        cfg,
		Store:        f.store,
		Embedder:     embed.NewStaticEmbedder(),
		SnapshotPath: f.engine.snapshotPath,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, restarted.Size())
	assert.True(t, restarted.LastUpdate().Equal(f.engine.LastUpdate()))

	results, err := restarted.Search(context.Background(), "snapshots outlive", search.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestEngine_SnapshotModelMismatchDiscarded(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "a.md", "content")
	f.update(t)

	snapPath := f.engine.snapshotPath
	snap, err := LoadSnapshot(snapPath)
	require.NoError(t, err)
	snap.Model = "some-other-model"
	require.NoError(t, SaveSnapshot(snapPath, snap))

	cfg := config.NewConfig()
	cfg.Vault.Path = f.dir
	restarted, err := New(Config{
		Vault:        cfg,
		Store:        f.store,
		Embedder:     embed.NewStaticEmbedder(),
		SnapshotPath: snapPath,
	})
	require.NoError(t, err)

	// Discarded: the next cycle rebuilds from the record store.
	assert.Zero(t, restarted.Size())
}

func TestEngine_ExclusionRemovesIndexedContent(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, filepath.Join("Private", "secret.md"), "hidden treasure map")
	f.write(t, "public.md", "public announcement")
	f.update(t)
	require.Equal(t, 2, f.engine.Size())

	ctx := context.Background()
	require.NoError(t, f.engine.AddExcludedPath(ctx, "Private"))
	f.update(t)

	assert.Equal(t, 1, f.engine.Size())
	exists, err := f.store.FileExists(ctx, "Private/secret.md")
	require.NoError(t, err)
	assert.False(t, exists)

	paths, err := f.engine.ExcludedPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Private"}, paths)

	removed, err := f.engine.RemoveExcludedPath(ctx, "Private")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Error(t, f.engine.AddExcludedPath(ctx, "  "))
}

func TestEngine_Stats(t *testing.T) {
	f := newEngineFixture(t)
	f.write(t, "notes/a.md", "alpha notes")
	f.write(t, "notes/b.txt", "beta notes")
	f.update(t)

	stats, err := f.engine.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(StateIdle), stats.State)
	assert.Equal(t, 2, stats.UniqueFiles)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 2, stats.IndexSize)
	assert.Equal(t, embed.StaticModelName, stats.EmbeddingModel)
	assert.Equal(t, 2, stats.KeywordChunks)
	assert.Equal(t, 1000, stats.Chunking.MaxSize)

	require.NotNil(t, stats.FolderStructure)
	assert.Equal(t, 2, stats.FolderStructure.TotalFiles)
	require.Len(t, stats.FolderStructure.Folders, 1)
	assert.Equal(t, "notes", stats.FolderStructure.Folders[0].Path)
	assert.Equal(t, 1, stats.FolderStructure.ByType["md"])
	assert.Equal(t, 1, stats.FolderStructure.ByType["txt"])
}

// failingStore wraps a real store and fails ListAllChunks on demand,
// which is the first thing a rebuild does.
type failingStore struct {
	Store
	failList bool
}

func (s *failingStore) ListAllChunks(ctx context.Context) ([]*store.ChunkRecord, error) {
	if s.failList {
		return nil, fmt.Errorf("simulated store failure")
	}
	return s.Store.ListAllChunks(ctx)
}

func newRecoveryFixture(t *testing.T, snapshotPath string) (*engineFixture, *failingStore) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fs := &failingStore{Store: st}
	cfg := config.NewConfig()
	cfg.Vault.Path = dir

	eng, err := New(Config{
		Vault:        cfg,
		Store:        fs,
		Embedder:     embed.NewStaticEmbedder(),
		SnapshotPath: snapshotPath,
	})
	require.NoError(t, err)

	return &engineFixture{dir: dir, store: st, engine: eng}, fs
}

func TestEngine_RecoveryFallsBackToSnapshot(t *testing.T) {
	snapPath := filepath.Join(t.TempDir(), "index.snap")
	f, fs := newRecoveryFixture(t, snapPath)
	f.write(t, "a.md", "recoverable content")
	f.update(t)
	require.Equal(t, 1, f.engine.Size())

	// Break the rebuild path and force a structural change.
	fs.failList = true
	f.write(t, "b.md", "new content")

	err := f.engine.UpdateIndex(context.Background())
	require.Error(t, err)
	assert.Equal(t, glerrors.ErrCodeRebuildFailed, glerrors.GetCode(err))

	// Recovery reloaded the last snapshot: stale but serving.
	assert.Equal(t, StateIdle, f.engine.State())
	assert.Equal(t, 1, f.engine.Size())

	results, err := f.engine.Search(context.Background(), "recoverable", search.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestEngine_RecoveryExhaustedIsTerminal(t *testing.T) {
	// No snapshot to fall back to.
	f, fs := newRecoveryFixture(t, "")
	f.write(t, "a.md", "content")
	fs.failList = true

	err := f.engine.UpdateIndex(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateInconsistent, f.engine.State())

	// Every surface reports the terminal state until restart.
	_, err = f.engine.Search(context.Background(), "content", search.Options{})
	assert.Equal(t, glerrors.ErrCodeRebuildFailed, glerrors.GetCode(err))

	_, err = f.engine.Stats(context.Background())
	assert.Error(t, err)

	err = f.engine.UpdateIndex(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpdateInProgress)
}
