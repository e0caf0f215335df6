package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/embed"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/search"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
)

// Full-stack tests: a real vault directory on disk, the SQLite record
// store, the FTS5 keyword sidecar, and the static embedder wired into
// one engine, exercised through UpdateIndex and Search.

type vaultFixture struct {
	root     string
	stateDir string
	store    *store.SQLiteStore
	engine   *index.Engine
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()

	root := t.TempDir()
	stateDir := t.TempDir()
	f := &vaultFixture{root: root, stateDir: stateDir}
	f.open(t)
	return f
}

// open builds the engine stack. Calling it again after close simulates
// a process restart against the same vault and state directory.
func (f *vaultFixture) open(t *testing.T) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(f.stateDir, "gladys.db"))
	require.NoError(t, err)

	kw, err := store.NewKeywordIndex(st.DB(), store.DefaultKeywordConfig())
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.Vault.Path = f.root

	eng, err := index.New(index.Config{
		Vault:        cfg,
		Store:        st,
		Embedder:     embed.NewStaticEmbedder(),
		Keyword:      kw,
		SnapshotPath: filepath.Join(f.stateDir, "index.snap"),
	})
	require.NoError(t, err)

	f.store = st
	f.engine = eng
}

func (f *vaultFixture) close(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Close())
}

func (f *vaultFixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *vaultFixture) update(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.UpdateIndex(context.Background()))
}

func writeSampleVault(t *testing.T, f *vaultFixture) {
	t.Helper()
	f.write(t, "notes/kubernetes.md",
		"# Kubernetes\n\nDeployment scaling requires resource limits and readiness probes.")
	f.write(t, "notes/sourdough.md",
		"# Sourdough\n\nFeed the starter twice a day and keep it warm.")
	f.write(t, "daily/2024-03-01.md",
		"Worked on the [[Kubernetes]] note, then baked bread.")
}

func TestIntegration_IndexAndSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	defer f.close(t)
	writeSampleVault(t, f)

	f.update(t)

	assert.Equal(t, index.StateIdle, f.engine.State())
	assert.Equal(t, 3, f.engine.Size())

	results, err := f.engine.Search(context.Background(), "kubernetes scaling",
		search.Options{K: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "notes/kubernetes.md", results[0].FilePath)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestIntegration_SearchModes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	defer f.close(t)
	writeSampleVault(t, f)
	f.update(t)

	ctx := context.Background()
	for _, mode := range []search.Mode{search.ModeVector, search.ModeKeyword, search.ModeHybrid} {
		results, err := f.engine.Search(ctx, "sourdough starter",
			search.Options{K: 3, Mode: mode})
		require.NoError(t, err, mode)
		require.NotEmpty(t, results, mode)
		assert.Equal(t, "notes/sourdough.md", results[0].FilePath, mode)
	}
}

func TestIntegration_DeletedFileLeavesResults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	defer f.close(t)
	writeSampleVault(t, f)
	f.update(t)

	require.NoError(t, os.Remove(filepath.Join(f.root, "notes", "sourdough.md")))
	f.update(t)

	assert.Equal(t, 2, f.engine.Size())

	results, err := f.engine.Search(context.Background(), "sourdough starter",
		search.Options{K: 5})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "notes/sourdough.md", r.FilePath)
	}
}

func TestIntegration_ExclusionAppliesOnNextCycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	defer f.close(t)
	writeSampleVault(t, f)
	f.write(t, "archive/old.md", "Obsolete note about nothing in particular.")
	f.update(t)

	assert.Equal(t, 4, f.engine.Size())

	ctx := context.Background()
	require.NoError(t, f.engine.AddExcludedPath(ctx, "archive"))
	f.update(t)

	assert.Equal(t, 3, f.engine.Size())

	results, err := f.engine.Search(ctx, "obsolete note", search.Options{K: 5})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotContains(t, r.FilePath, "archive/")
	}
}

func TestIntegration_EmptyVault(t *testing.T) {
	f := newVaultFixture(t)
	defer f.close(t)

	f.update(t)

	assert.Zero(t, f.engine.Size())

	results, err := f.engine.Search(context.Background(), "anything",
		search.Options{K: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIntegration_SnapshotSurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	writeSampleVault(t, f)
	f.update(t)
	sizeBefore := f.engine.Size()
	f.close(t)

	f.open(t)
	defer f.close(t)

	// The snapshot restores the served index without an update cycle.
	assert.Equal(t, sizeBefore, f.engine.Size())

	results, err := f.engine.Search(context.Background(), "kubernetes scaling",
		search.Options{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes/kubernetes.md", results[0].FilePath)
}

func TestIntegration_StatsReflectIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	defer f.close(t)
	writeSampleVault(t, f)
	f.update(t)

	stats, err := f.engine.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, index.StateIdle, stats.State)
	assert.Equal(t, f.root, stats.VaultPath)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 3, stats.UniqueFiles)
	assert.False(t, stats.LastUpdate.IsZero())
}

func TestIntegration_ConcurrentSearches(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := newVaultFixture(t)
	defer f.close(t)
	writeSampleVault(t, f)
	f.update(t)

	ctx := context.Background()
	queries := []string{"kubernetes", "sourdough", "bread", "scaling", "notes"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			_, err := f.engine.Search(ctx, q, search.Options{K: 3})
			assert.NoError(t, err)
		}(queries[i%len(queries)])
	}
	wg.Wait()
}

func TestIntegration_ConfigLoadAppliesVaultOverrides(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, config.EnsureGladysDir(vault))

	override := "version: 1\nindex:\n  chunk_size: 2000\nembedder:\n  provider: static\n"
	require.NoError(t, os.WriteFile(config.VaultConfigPath(vault), []byte(override), 0o644))

	cfg, err := config.Load(vault)
	require.NoError(t, err)

	assert.Equal(t, vault, cfg.Vault.Path)
	assert.Equal(t, 2000, cfg.Index.ChunkSize)
	assert.Equal(t, "static", cfg.Embedder.Provider)
	// Untouched fields keep their defaults.
	assert.Equal(t, config.NewConfig().Search.MaxResults, cfg.Search.MaxResults)
}
