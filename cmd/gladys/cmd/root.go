// Package cmd provides the CLI commands for Gladys.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/logging"
	"github.com/IgorArodrigues/Gladys-IA/internal/mcp"
	"github.com/IgorArodrigues/Gladys-IA/internal/preflight"
	"github.com/IgorArodrigues/Gladys-IA/internal/profiling"
	"github.com/IgorArodrigues/Gladys-IA/pkg/version"
)

// Profiling flags.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// Debug logging flag.
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the gladys CLI.
func NewRootCmd() *cobra.Command {
	var vaultPath string
	var offline bool
	var rebuild bool
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "gladys",
		Short: "Vault vector index maintainer and MCP search server",
		Long: `Gladys keeps a vector index over a document vault (Obsidian, Logseq,
or any folder of notes) and serves hybrid search to AI assistants over
the Model Context Protocol.

Run 'gladys' inside a vault to build the index and start serving.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runSmartDefault(cmd.Context(), vaultPath, offline, rebuild, skipCheck)
		},
	}

	cmd.SetVersionTemplate("gladys version {{.Version}}\n")

	cmd.Flags().StringVar(&vaultPath, "vault", "", "Vault root (default: walk up from the working directory)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the static embedder (skip the Ollama probe)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Run an update cycle even if an index exists")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip pre-flight system checks")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.gladys/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newExcludeCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging loads the environment, then starts profiling
// and debug logging if the flags ask for them.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	// .env is optional; GLADYS_* overrides apply during config loading.
	_ = godotenv.Load()

	var err error

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled", "log_file", logging.DefaultLogPath())
	}

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging, writing the
// memory profile if requested.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// runSmartDefault is the zero-argument flow: check, index if missing,
// serve.
func runSmartDefault(ctx context.Context, vaultPath string, offline, rebuild, skipCheck bool) error {
	// The MCP stdio transport reserves stdout for JSON-RPC frames, so
	// nothing may print before the server starts. Diagnostics go to the
	// log file; 'gladys doctor' gives the readable report.
	root, cfg, err := resolveVault(vaultPath)
	if err != nil {
		return err
	}
	if offline {
		cfg.Embedder.Provider = "static"
	}

	stateDir := config.GladysDir(root)
	if cleanup, err := logging.SetupMCPMode(logPathFor(root, cfg)); err == nil {
		defer cleanup()
	}

	if !skipCheck && preflight.NeedsCheck(stateDir) {
		checker := preflight.New(
			preflight.WithOffline(offline),
			preflight.WithOutput(io.Discard),
		)
		results := checker.RunAll(ctx, cfg, stateDir)
		if checker.HasCriticalFailures(results) {
			slog.Error("system check failed; run 'gladys doctor' for diagnostics")
			return fmt.Errorf("system check failed")
		}
		if err := preflight.MarkPassed(stateDir); err != nil {
			slog.Debug("marking preflight passed failed", "error", err)
		}
	}

	needsIndex := rebuild || !fileExists(config.DBPath(root))

	h, err := openEngine(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	if needsIndex {
		slog.Info("building initial index", "vault", root)
		if err := h.Engine.UpdateIndex(ctx); err != nil {
			return fmt.Errorf("initial index failed: %w", err)
		}
		slog.Info("initial index complete", "index_size", h.Engine.Size())
	}

	srv, err := mcp.NewServer(h.Engine, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
