package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 1000, cfg.Index.ChunkSize)
	assert.Equal(t, 100, cfg.Index.ChunkOverlap)
	assert.Equal(t, 50, cfg.Index.MinChunkSize)
	assert.Equal(t, "5m", cfg.Index.UpdateInterval)
	assert.Equal(t, 1000, cfg.Index.CacheSize)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.InDelta(t, 1.0, cfg.Search.BM25Weight+cfg.Search.SemanticWeight, 0.001)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, "cosine", cfg.Embedder.Metric)
	assert.True(t, cfg.UsageTrackingEnabled())
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Contains(t, cfg.Vault.Exclude, "**/.gladys/**")
	assert.Contains(t, cfg.Vault.Exclude, "**/.obsidian/**")

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "overlap must be below chunk size",
			mutate:  func(c *Config) { c.Index.ChunkOverlap = c.Index.ChunkSize },
			wantErr: "chunk_overlap",
		},
		{
			name:    "chunk size must be positive",
			mutate:  func(c *Config) { c.Index.ChunkSize = -5 },
			wantErr: "chunk_size",
		},
		{
			name:    "weights must sum to one",
			mutate:  func(c *Config) { c.Search.BM25Weight = 0.9 },
			wantErr: "must equal 1.0",
		},
		{
			name:    "unknown embedder provider",
			mutate:  func(c *Config) { c.Embedder.Provider = "openai" },
			wantErr: "embedder.provider",
		},
		{
			name:    "unknown metric",
			mutate:  func(c *Config) { c.Embedder.Metric = "dot" },
			wantErr: "embedder.metric",
		},
		{
			name:    "bad update interval",
			mutate:  func(c *Config) { c.Index.UpdateInterval = "five minutes" },
			wantErr: "update_interval",
		},
		{
			name:    "bad transport",
			mutate:  func(c *Config) { c.Server.Transport = "http" },
			wantErr: "transport",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "cache size must be positive",
			mutate:  func(c *Config) { c.Index.CacheSize = 0 },
			wantErr: "cache_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadVaultConfig(t *testing.T) {
	// Given: a vault with a .gladys/config.yaml overriding chunking
	vault := t.TempDir()
	require.NoError(t, EnsureGladysDir(vault))
	yaml := `
index:
  chunk_size: 800
  chunk_overlap: 80
search:
  max_results: 5
embedder:
  provider: static
`
	require.NoError(t, os.WriteFile(VaultConfigPath(vault), []byte(yaml), 0o644))

	// When: loading the vault
	cfg, err := Load(vault)
	require.NoError(t, err)

	// Then: file values override defaults, untouched fields keep defaults
	assert.Equal(t, 800, cfg.Index.ChunkSize)
	assert.Equal(t, 80, cfg.Index.ChunkOverlap)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "static", cfg.Embedder.Provider)
	assert.Equal(t, 50, cfg.Index.MinChunkSize)
	assert.Equal(t, vault, cfg.Vault.Path)
}

func TestLoadRootDotfileFallback(t *testing.T) {
	vault := t.TempDir()
	yaml := "index:\n  cache_size: 250\n"
	require.NoError(t, os.WriteFile(filepath.Join(vault, ".gladys.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(vault)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Index.CacheSize)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, EnsureGladysDir(vault))
	yaml := "index:\n  chunk_size: 100\n  chunk_overlap: 200\n"
	require.NoError(t, os.WriteFile(VaultConfigPath(vault), []byte(yaml), 0o644))

	_, err := Load(vault)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestEnvOverrides(t *testing.T) {
	vault := t.TempDir()
	t.Setenv("GLADYS_CHUNK_SIZE", "1200")
	t.Setenv("GLADYS_UPDATE_INTERVAL", "90s")
	t.Setenv("GLADYS_EMBEDDER", "static")
	t.Setenv("GLADYS_LOG_LEVEL", "debug")
	t.Setenv("GLADYS_SEMANTIC_WEIGHT", "0.5")
	t.Setenv("GLADYS_BM25_WEIGHT", "0.5")

	cfg, err := Load(vault)
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.Index.ChunkSize)
	assert.Equal(t, 90*time.Second, cfg.UpdateInterval())
	assert.Equal(t, "static", cfg.Embedder.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.InDelta(t, 0.5, cfg.Search.SemanticWeight, 0.001)
}

func TestEnvOverridesBeatVaultConfig(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, EnsureGladysDir(vault))
	yaml := "index:\n  chunk_size: 700\n"
	require.NoError(t, os.WriteFile(VaultConfigPath(vault), []byte(yaml), 0o644))
	t.Setenv("GLADYS_CHUNK_SIZE", "900")

	cfg, err := Load(vault)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Index.ChunkSize)
}

func TestUsageTrackingAndMetricFromVaultConfig(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, EnsureGladysDir(vault))
	yaml := "index:\n  usage_tracking: false\nembedder:\n  metric: l2\n"
	require.NoError(t, os.WriteFile(VaultConfigPath(vault), []byte(yaml), 0o644))

	cfg, err := Load(vault)
	require.NoError(t, err)

	assert.False(t, cfg.UsageTrackingEnabled())
	assert.Equal(t, "l2", cfg.Embedder.Metric)
}

func TestMergeWithAppendsExcludes(t *testing.T) {
	cfg := NewConfig()
	defaultsLen := len(cfg.Vault.Exclude)

	cfg.mergeWith(&Config{Vault: VaultConfig{Exclude: []string{"archive/**"}}})

	assert.Len(t, cfg.Vault.Exclude, defaultsLen+1)
	assert.Contains(t, cfg.Vault.Exclude, "archive/**")
	assert.Contains(t, cfg.Vault.Exclude, "**/.git/**")
}

func TestDurationAccessors(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 5*time.Minute, cfg.UpdateInterval())
	assert.Equal(t, 30*time.Second, cfg.EmbedTimeout())

	cfg.Index.UpdateInterval = "garbage"
	assert.Equal(t, 5*time.Minute, cfg.UpdateInterval(), "invalid interval falls back to default")
}

func TestMaxFileSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Vault.MaxFileSizeMB = 2
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSize())
}

func TestDetectVaultKind(t *testing.T) {
	t.Run("obsidian marker", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".obsidian"), 0o755))
		assert.Equal(t, VaultKindObsidian, DetectVaultKind(dir))
	})

	t.Run("plain directory", func(t *testing.T) {
		assert.Equal(t, VaultKindPlain, DetectVaultKind(t.TempDir()))
	})
}

func TestFindVaultRoot(t *testing.T) {
	// Given: a vault root marked by .obsidian with a nested subfolder
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".obsidian"), 0o755))
	nested := filepath.Join(root, "notes", "projects")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// When: searching from the nested directory
	found, err := FindVaultRoot(nested)
	require.NoError(t, err)

	// Then: the marked root is found
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedFound, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, resolvedRoot, resolvedFound)
}

func TestFindVaultRootFallsBackToStart(t *testing.T) {
	dir := t.TempDir()
	found, err := FindVaultRoot(dir)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, found)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := NewConfig()
	cfg.Index.ChunkSize = 1234
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 1234, loaded.Index.ChunkSize)
}

func TestMergeNewDefaults(t *testing.T) {
	// Simulate a config written before the search weights existed.
	cfg := NewConfig()
	cfg.Search.BM25Weight = 0
	cfg.Search.SemanticWeight = 0
	cfg.Storage.SQLiteCacheMB = 0
	cfg.Embedder.Metric = ""
	cfg.Index.UsageTracking = nil

	added := cfg.MergeNewDefaults()

	assert.Contains(t, added, "search.bm25_weight")
	assert.Contains(t, added, "search.semantic_weight")
	assert.Contains(t, added, "storage.sqlite_cache_mb")
	assert.Contains(t, added, "embedder.metric")
	assert.Contains(t, added, "index.usage_tracking")
	assert.True(t, cfg.UsageTrackingEnabled())
	assert.InDelta(t, 1.0, cfg.Search.BM25Weight+cfg.Search.SemanticWeight, 0.001)
	require.NoError(t, cfg.Validate())
}

func TestVaultPaths(t *testing.T) {
	root := "/data/vault"
	assert.Equal(t, filepath.Join(root, ".gladys"), GladysDir(root))
	assert.Equal(t, filepath.Join(root, ".gladys", "gladys.db"), DBPath(root))
	assert.Equal(t, filepath.Join(root, ".gladys", "index.snap"), SnapshotPath(root))
	assert.Equal(t, filepath.Join(root, ".gladys", "gladys.pid"), PIDPath(root))
	assert.Equal(t, filepath.Join(root, ".gladys", "gladys.sock"), SocketPath(root))
	assert.Equal(t, filepath.Join(root, ".gladys", ".lock"), LockPath(root))
}

func TestUserConfigPathRespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "gladys", "config.yaml"), GetUserConfigPath())
}

func TestLoadAppliesUserConfig(t *testing.T) {
	// Given: a user-level config setting the Ollama host
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	userDir := filepath.Join(xdg, "gladys")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	userYAML := "embedder:\n  ollama_host: http://embed-box:11434\n"
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(userYAML), 0o644))

	// And: a vault config overriding chunking only
	vault := t.TempDir()
	require.NoError(t, EnsureGladysDir(vault))
	vaultYAML := "index:\n  chunk_size: 600\n"
	require.NoError(t, os.WriteFile(VaultConfigPath(vault), []byte(vaultYAML), 0o644))

	// When: loading
	cfg, err := Load(vault)
	require.NoError(t, err)

	// Then: both layers applied
	assert.Equal(t, "http://embed-box:11434", cfg.Embedder.OllamaHost)
	assert.Equal(t, 600, cfg.Index.ChunkSize)
}
