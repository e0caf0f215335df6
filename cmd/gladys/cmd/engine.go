package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/embed"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/logging"
	"github.com/IgorArodrigues/Gladys-IA/internal/store"
	"github.com/IgorArodrigues/Gladys-IA/internal/telemetry"
)

// embedderInitTimeout bounds the provider probe during startup. A dead
// Ollama endpoint should degrade to the static embedder, not hang the CLI.
const embedderInitTimeout = 15 * time.Second

// engineHandle bundles a constructed engine with the resources it
// borrows. Close releases them in dependency order.
type engineHandle struct {
	Engine   *index.Engine
	Store    *store.SQLiteStore
	Embedder embed.Embedder
	Config   *config.Config
	Root     string
}

func (h *engineHandle) Close() {
	if h.Embedder != nil {
		_ = h.Embedder.Close()
	}
	if h.Store != nil {
		_ = h.Store.Close()
	}
}

// resolveVault locates the vault root and loads its configuration. A
// broken config file falls back to defaults so read-only commands keep
// working; the warning lands in the log.
func resolveVault(flagPath string) (string, *config.Config, error) {
	start := flagPath
	if start == "" {
		start = "."
	}

	root, err := config.FindVaultRoot(start)
	if err != nil {
		return "", nil, fmt.Errorf("resolve vault root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		slog.Warn("config load failed, using defaults", "vault", root, "error", err)
		cfg = config.NewConfig()
		cfg.Vault.Path = root
	}
	return root, cfg, nil
}

// openEngine wires the full stack for one vault: SQLite store, keyword
// sidecar, usage recorder, embedder, and the index engine with snapshot
// persistence.
func openEngine(ctx context.Context, root string, cfg *config.Config, opts ...index.Option) (*engineHandle, error) {
	metric, err := store.ParseMetric(cfg.Embedder.Metric)
	if err != nil {
		return nil, fmt.Errorf("resolve vector metric: %w", err)
	}

	if err := config.EnsureGladysDir(root); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	st, err := store.NewSQLiteStore(config.DBPath(root))
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	keyword, err := store.NewKeywordIndex(st.DB(), store.DefaultKeywordConfig())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open keyword index: %w", err)
	}

	// A nil recorder disables accounting; its methods no-op on nil.
	var usage *telemetry.UsageRecorder
	if cfg.UsageTrackingEnabled() {
		usage, err = telemetry.NewUsageRecorder(st.DB())
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("open usage recorder: %w", err)
		}
	}

	initCtx, cancel := context.WithTimeout(ctx, embedderInitTimeout)
	defer cancel()
	embedder, err := embed.New(initCtx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	engine, err := index.New(index.Config{
		Vault:        cfg,
		Store:        st,
		Embedder:     embedder,
		Keyword:      keyword,
		Usage:        usage,
		Logger:       slog.Default(),
		SnapshotPath: config.SnapshotPath(root),
		Metric:       metric,
	}, opts...)
	if err != nil {
		_ = embedder.Close()
		_ = st.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &engineHandle{
		Engine:   engine,
		Store:    st,
		Embedder: embedder,
		Config:   cfg,
		Root:     root,
	}, nil
}

// setupCLILogging routes logs to the vault log file only; command
// output stays clean. The returned cleanup is always safe to call.
func setupCLILogging(root string, cfg *config.Config) func() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = logPathFor(root, cfg)
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return func() {}
	}
	slog.SetDefault(logger)
	return cleanup
}

// logPathFor resolves the log file location: config override first,
// then the vault's .gladys/logs directory.
func logPathFor(root string, cfg *config.Config) string {
	if cfg.Logging.File != "" {
		return cfg.Logging.File
	}
	return logging.VaultLogPath(root)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
