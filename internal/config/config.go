package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// VaultKind identifies the flavor of a document vault.
type VaultKind string

const (
	VaultKindObsidian VaultKind = "obsidian"
	VaultKindLogseq   VaultKind = "logseq"
	VaultKindPlain    VaultKind = "plain"
)

// Config is the complete Gladys configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Vault    VaultConfig    `yaml:"vault" json:"vault"`
	Index    IndexConfig    `yaml:"index" json:"index"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Embedder EmbedderConfig `yaml:"embedder" json:"embedder"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// VaultConfig configures the document tree being indexed.
type VaultConfig struct {
	// Path is the vault root. Relative paths resolve against the
	// working directory.
	Path string `yaml:"path" json:"path"`

	// Include restricts scanning to matching glob patterns (empty = all).
	Include []string `yaml:"include" json:"include"`

	// Exclude adds glob patterns on top of the built-in defaults.
	// Database-backed exclusions (gladys exclude) apply in addition.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// MaxFileSizeMB skips files larger than this during scanning.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	// RespectGitignore additionally hides files matched by .gitignore
	// rules. Useful for vaults synced through git.
	RespectGitignore bool `yaml:"respect_gitignore" json:"respect_gitignore"`
}

// IndexConfig configures chunking and the update cycle.
type IndexConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ChunkOverlap is the character overlap between consecutive chunks.
	// Must be smaller than ChunkSize.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`

	// MinChunkSize merges trailing fragments below this length into
	// their predecessor.
	MinChunkSize int `yaml:"min_chunk_size" json:"min_chunk_size"`

	// UpdateInterval is how often the background refresher runs,
	// in Go duration syntax ("5m", "300s").
	UpdateInterval string `yaml:"update_interval" json:"update_interval"`

	// CacheSize caps the in-memory hot chunk cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// UsageTracking records embedding usage rows for `gladys stats`.
	// Unset means enabled.
	UsageTracking *bool `yaml:"usage_tracking" json:"usage_tracking"`
}

// SearchConfig configures retrieval behavior.
// Semantic similarity leads by default; prose vaults gain little from
// keyword-heavy weighting.
type SearchConfig struct {
	// MaxResults is the default number of results returned.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// BM25Weight is the keyword leg weight (0.0-1.0). Must sum to 1.0
	// with SemanticWeight.
	BM25Weight float64 `yaml:"bm25_weight" json:"bm25_weight"`

	// SemanticWeight is the vector leg weight (0.0-1.0).
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`

	// RRFConstant is the rank-fusion smoothing parameter (k).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// MaxChunkChars is the length above which result text is replaced
	// with an extractive summary.
	MaxChunkChars int `yaml:"max_chunk_chars" json:"max_chunk_chars"`

	// SummaryMaxChars caps the extractive summary length.
	SummaryMaxChars int `yaml:"summary_max_chars" json:"summary_max_chars"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// Provider selects the embedder: "ollama", "static", or empty for
	// auto-detection (Ollama when reachable, static otherwise).
	Provider string `yaml:"provider" json:"provider"`

	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`

	// Dimensions is the embedding width. 0 auto-detects from the provider.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize is the number of texts embedded per request batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// OllamaHost overrides the Ollama endpoint (default http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// Timeout is the per-request timeout in Go duration syntax.
	Timeout string `yaml:"timeout" json:"timeout"`

	// MaxRetries is the number of retry attempts for transient failures.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// Metric selects the vector distance: "cosine" (default) or "l2".
	Metric string `yaml:"metric" json:"metric"`
}

// StorageConfig configures the SQLite metadata store.
type StorageConfig struct {
	// SQLiteCacheMB is the SQLite page cache size in megabytes.
	SQLiteCacheMB int `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`

	// File overrides the log path. Empty resolves to
	// <vault>/.gladys/logs/gladys.log.
	File string `yaml:"file" json:"file"`

	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int `yaml:"max_files" json:"max_files"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
}

// SupportedExtensions lists file extensions the indexer will ingest.
var SupportedExtensions = []string{".md", ".txt", ".docx", ".xlsx", ".xls", ".pdf", ".html", ".htm"}

// defaultExcludePatterns are always excluded from scanning.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/.gladys/**",
	"**/.obsidian/**",
	"**/.trash/**",
	"**/node_modules/**",
	"**/~$*",
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Vault: VaultConfig{
			Path:          ".",
			Include:       []string{},
			Exclude:       append([]string{}, defaultExcludePatterns...),
			MaxFileSizeMB: 50,
		},
		Index: IndexConfig{
			ChunkSize:      1000,
			ChunkOverlap:   100,
			MinChunkSize:   50,
			UpdateInterval: "5m",
			CacheSize:      1000,
			UsageTracking:  boolPtr(true),
		},
		Search: SearchConfig{
			MaxResults:      10,
			BM25Weight:      0.35,
			SemanticWeight:  0.65,
			RRFConstant:     60,
			MaxChunkChars:   1500,
			SummaryMaxChars: 1000,
		},
		Embedder: EmbedderConfig{
			Provider:   "", // auto-detect: Ollama when reachable, static otherwise
			Model:      "nomic-embed-text",
			Dimensions: 0, // auto-detect from provider
			BatchSize:  32,
			OllamaHost: "",
			Timeout:    "30s",
			MaxRetries: 3,
			Metric:     "cosine",
		},
		Storage: StorageConfig{
			SQLiteCacheMB: 64,
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Server: ServerConfig{
			Transport: "stdio",
		},
	}
}

// DefaultExcludePatterns returns a copy of the built-in exclusions.
func DefaultExcludePatterns() []string {
	return append([]string{}, defaultExcludePatterns...)
}

// GetUserConfigPath returns the path to the user-level configuration file,
// following the XDG Base Directory convention:
//   - $XDG_CONFIG_HOME/gladys/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/gladys/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gladys", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "gladys", "config.yaml")
	}
	return filepath.Join(home, ".config", "gladys", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("load user config %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load assembles the configuration for a vault, applying sources in order
// of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/gladys/config.yaml)
//  3. Vault config (<vault>/.gladys/config.yaml, or .gladys.yaml at the root)
//  4. Environment variables (GLADYS_*)
func Load(vaultDir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadVaultConfig(vaultDir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if cfg.Vault.Path == "" || cfg.Vault.Path == "." {
		cfg.Vault.Path = vaultDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// VaultConfigPath returns the primary vault config location.
func VaultConfigPath(vaultDir string) string {
	return filepath.Join(GladysDir(vaultDir), "config.yaml")
}

func (c *Config) loadVaultConfig(vaultDir string) error {
	primary := VaultConfigPath(vaultDir)
	if fileExists(primary) {
		return c.loadYAML(primary)
	}

	// Root-level dotfile for vaults that keep .gladys/ out of sync tools.
	alt := filepath.Join(vaultDir, ".gladys.yaml")
	if fileExists(alt) {
		return c.loadYAML(alt)
	}

	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Vault.Path != "" {
		c.Vault.Path = other.Vault.Path
	}
	if len(other.Vault.Include) > 0 {
		c.Vault.Include = other.Vault.Include
	}
	if len(other.Vault.Exclude) > 0 {
		// User patterns extend the defaults rather than replace them.
		c.Vault.Exclude = append(c.Vault.Exclude, other.Vault.Exclude...)
	}
	if other.Vault.MaxFileSizeMB != 0 {
		c.Vault.MaxFileSizeMB = other.Vault.MaxFileSizeMB
	}

	if other.Index.ChunkSize != 0 {
		c.Index.ChunkSize = other.Index.ChunkSize
	}
	if other.Index.ChunkOverlap != 0 {
		c.Index.ChunkOverlap = other.Index.ChunkOverlap
	}
	if other.Index.MinChunkSize != 0 {
		c.Index.MinChunkSize = other.Index.MinChunkSize
	}
	if other.Index.UpdateInterval != "" {
		c.Index.UpdateInterval = other.Index.UpdateInterval
	}
	if other.Index.CacheSize != 0 {
		c.Index.CacheSize = other.Index.CacheSize
	}
	if other.Index.UsageTracking != nil {
		c.Index.UsageTracking = other.Index.UsageTracking
	}

	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.BM25Weight != 0 {
		c.Search.BM25Weight = other.Search.BM25Weight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.MaxChunkChars != 0 {
		c.Search.MaxChunkChars = other.Search.MaxChunkChars
	}
	if other.Search.SummaryMaxChars != 0 {
		c.Search.SummaryMaxChars = other.Search.SummaryMaxChars
	}

	if other.Embedder.Provider != "" {
		c.Embedder.Provider = other.Embedder.Provider
	}
	if other.Embedder.Model != "" {
		c.Embedder.Model = other.Embedder.Model
	}
	if other.Embedder.Dimensions != 0 {
		c.Embedder.Dimensions = other.Embedder.Dimensions
	}
	if other.Embedder.BatchSize != 0 {
		c.Embedder.BatchSize = other.Embedder.BatchSize
	}
	if other.Embedder.OllamaHost != "" {
		c.Embedder.OllamaHost = other.Embedder.OllamaHost
	}
	if other.Embedder.Timeout != "" {
		c.Embedder.Timeout = other.Embedder.Timeout
	}
	if other.Embedder.MaxRetries != 0 {
		c.Embedder.MaxRetries = other.Embedder.MaxRetries
	}
	if other.Embedder.Metric != "" {
		c.Embedder.Metric = other.Embedder.Metric
	}

	if other.Storage.SQLiteCacheMB != 0 {
		c.Storage.SQLiteCacheMB = other.Storage.SQLiteCacheMB
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
}

// applyEnvOverrides applies GLADYS_* environment variable overrides,
// the highest-precedence configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GLADYS_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.ChunkSize = n
		}
	}
	if v := os.Getenv("GLADYS_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Index.ChunkOverlap = n
		}
	}
	if v := os.Getenv("GLADYS_UPDATE_INTERVAL"); v != "" {
		c.Index.UpdateInterval = v
	}
	if v := os.Getenv("GLADYS_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.CacheSize = n
		}
	}
	if v := os.Getenv("GLADYS_USAGE_TRACKING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Index.UsageTracking = &b
		}
	}

	if v := os.Getenv("GLADYS_BM25_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.BM25Weight = w
		}
	}
	if v := os.Getenv("GLADYS_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("GLADYS_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("GLADYS_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}

	if v := os.Getenv("GLADYS_EMBEDDER"); v != "" {
		c.Embedder.Provider = v
	}
	if v := os.Getenv("GLADYS_EMBEDDINGS_MODEL"); v != "" {
		c.Embedder.Model = v
	}
	if v := os.Getenv("GLADYS_OLLAMA_HOST"); v != "" {
		c.Embedder.OllamaHost = v
	}
	if v := os.Getenv("GLADYS_METRIC"); v != "" {
		c.Embedder.Metric = v
	}

	if v := os.Getenv("GLADYS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GLADYS_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 {
		return fmt.Errorf("index.chunk_overlap must be non-negative, got %d", c.Index.ChunkOverlap)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap (%d) must be smaller than index.chunk_size (%d)",
			c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	if c.Index.MinChunkSize < 0 || c.Index.MinChunkSize > c.Index.ChunkSize {
		return fmt.Errorf("index.min_chunk_size must be between 0 and chunk_size, got %d", c.Index.MinChunkSize)
	}
	if c.Index.CacheSize <= 0 {
		return fmt.Errorf("index.cache_size must be positive, got %d", c.Index.CacheSize)
	}
	if _, err := time.ParseDuration(c.Index.UpdateInterval); err != nil {
		return fmt.Errorf("index.update_interval is not a valid duration: %q", c.Index.UpdateInterval)
	}

	if c.Search.BM25Weight < 0 || c.Search.BM25Weight > 1 {
		return fmt.Errorf("search.bm25_weight must be between 0 and 1, got %f", c.Search.BM25Weight)
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("search.semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight)
	}
	sum := c.Search.BM25Weight + c.Search.SemanticWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("search.bm25_weight + search.semantic_weight must equal 1.0, got %.2f", sum)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}

	if c.Embedder.Provider != "" { // empty triggers auto-detection
		validProviders := map[string]bool{"ollama": true, "static": true}
		if !validProviders[strings.ToLower(c.Embedder.Provider)] {
			return fmt.Errorf("embedder.provider must be 'ollama', 'static', or empty (auto-detect), got %s",
				c.Embedder.Provider)
		}
	}
	if _, err := time.ParseDuration(c.Embedder.Timeout); err != nil {
		return fmt.Errorf("embedder.timeout is not a valid duration: %q", c.Embedder.Timeout)
	}
	switch strings.ToLower(c.Embedder.Metric) {
	case "", "cosine", "l2":
	default:
		return fmt.Errorf("embedder.metric must be 'cosine' or 'l2', got %s", c.Embedder.Metric)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	return nil
}

// UpdateInterval returns the parsed refresh interval.
// Call Validate first; invalid values fall back to 5 minutes.
func (c *Config) UpdateInterval() time.Duration {
	d, err := time.ParseDuration(c.Index.UpdateInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// UsageTrackingEnabled reports whether embedding usage accounting is
// on. An unset key defaults to enabled.
func (c *Config) UsageTrackingEnabled() bool {
	return c.Index.UsageTracking == nil || *c.Index.UsageTracking
}

// EmbedTimeout returns the parsed per-request embedding timeout.
func (c *Config) EmbedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Embedder.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// MaxFileSize returns the scan size cap in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Vault.MaxFileSizeMB) * 1024 * 1024
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// DetectVaultKind inspects marker directories to classify a vault.
func DetectVaultKind(dir string) VaultKind {
	if dirExists(filepath.Join(dir, ".obsidian")) {
		return VaultKindObsidian
	}
	if dirExists(filepath.Join(dir, "logseq")) {
		return VaultKindLogseq
	}
	return VaultKindPlain
}

// FindVaultRoot walks up from startDir looking for a vault marker:
// a .gladys directory, a .gladys.yaml file, or an .obsidian directory.
// Falls back to startDir when no marker is found.
func FindVaultRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".gladys")) ||
			fileExists(filepath.Join(currentDir, ".gladys.yaml")) ||
			dirExists(filepath.Join(currentDir, ".obsidian")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// MergeNewDefaults fills in fields added after the config file was written,
// preserving existing values. Returns the dotted names of fields it added.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Search.BM25Weight == 0 {
		c.Search.BM25Weight = defaults.Search.BM25Weight
		added = append(added, "search.bm25_weight")
	}
	if c.Search.SemanticWeight == 0 {
		c.Search.SemanticWeight = defaults.Search.SemanticWeight
		added = append(added, "search.semantic_weight")
	}
	if c.Search.RRFConstant == 0 {
		c.Search.RRFConstant = defaults.Search.RRFConstant
		added = append(added, "search.rrf_constant")
	}
	if c.Search.MaxChunkChars == 0 {
		c.Search.MaxChunkChars = defaults.Search.MaxChunkChars
		added = append(added, "search.max_chunk_chars")
	}
	if c.Search.SummaryMaxChars == 0 {
		c.Search.SummaryMaxChars = defaults.Search.SummaryMaxChars
		added = append(added, "search.summary_max_chars")
	}
	if c.Index.MinChunkSize == 0 {
		c.Index.MinChunkSize = defaults.Index.MinChunkSize
		added = append(added, "index.min_chunk_size")
	}
	if c.Storage.SQLiteCacheMB == 0 {
		c.Storage.SQLiteCacheMB = defaults.Storage.SQLiteCacheMB
		added = append(added, "storage.sqlite_cache_mb")
	}
	if c.Embedder.MaxRetries == 0 {
		c.Embedder.MaxRetries = defaults.Embedder.MaxRetries
		added = append(added, "embedder.max_retries")
	}
	if c.Embedder.Metric == "" {
		c.Embedder.Metric = defaults.Embedder.Metric
		added = append(added, "embedder.metric")
	}
	if c.Index.UsageTracking == nil {
		c.Index.UsageTracking = defaults.Index.UsageTracking
		added = append(added, "index.usage_tracking")
	}

	return added
}

func boolPtr(b bool) *bool {
	return &b
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// String returns the string form of a VaultKind.
func (k VaultKind) String() string {
	return string(k)
}
