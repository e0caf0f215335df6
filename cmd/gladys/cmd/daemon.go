package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/daemon"
	"github.com/IgorArodrigues/Gladys-IA/internal/logging"
	"github.com/IgorArodrigues/Gladys-IA/internal/output"
	"github.com/IgorArodrigues/Gladys-IA/internal/watcher"
)

func newDaemonCmd() *cobra.Command {
	var vault string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background index maintainer",
		Long: `The daemon keeps the vault index current without a foreground process:
a timer runs update cycles on the configured interval, an optional
filesystem watcher triggers them early, and a unix socket answers
status, update, and stop requests.

Examples:
  gladys daemon start       # start in the background
  gladys daemon start -f    # run in the foreground (for debugging)
  gladys daemon status      # engine state, refresher runs, watcher backend
  gladys daemon update      # trigger one cycle now
  gladys daemon stop        # graceful shutdown`,
	}

	cmd.PersistentFlags().StringVar(&vault, "vault", "", "Vault root (default: walk up from the working directory)")

	cmd.AddCommand(newDaemonStartCmd(&vault))
	cmd.AddCommand(newDaemonStopCmd(&vault))
	cmd.AddCommand(newDaemonStatusCmd(&vault))
	cmd.AddCommand(newDaemonUpdateCmd(&vault))

	return cmd
}

func newDaemonStartCmd(vault *string) *cobra.Command {
	var foreground bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the index maintainer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStart(cmd.Context(), cmd, *vault, foreground, watch)
		},
	}

	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in the foreground (don't daemonize)")
	cmd.Flags().BoolVar(&watch, "watch", true, "Trigger cycles on filesystem changes")
	return cmd
}

func newDaemonStopCmd(vault *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running maintainer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStop(cmd.Context(), cmd, *vault)
		},
	}
}

func newDaemonStatusCmd(vault *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show maintainer status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStatus(cmd.Context(), cmd, *vault, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDaemonUpdateCmd(vault *string) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Trigger one update cycle now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonUpdate(cmd.Context(), cmd, *vault)
		},
	}
}

func runDaemonStart(ctx context.Context, cmd *cobra.Command, vault string, foreground, watch bool) error {
	out := output.New(cmd.OutOrStdout())

	root, cfg, err := resolveVault(vault)
	if err != nil {
		return err
	}
	daemonCfg := daemon.DefaultConfig(config.GladysDir(root))

	client := daemon.NewClient(daemonCfg)
	if client.IsRunning() {
		out.Status("", "Daemon is already running")
		return nil
	}

	if foreground {
		return runDaemonForeground(ctx, cmd, root, cfg, daemonCfg, watch)
	}

	out.Status("", "Starting daemon in background...")

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground", fmt.Sprintf("--watch=%t", watch)}
	if vault != "" {
		args = append(args, "--vault", vault)
	}
	bgCmd := exec.Command(execPath, args...)
	bgCmd.Stdout = nil
	bgCmd.Stderr = nil
	bgCmd.Stdin = nil
	bgCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := bgCmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	// Reap the child and catch startup failures before the socket ever
	// comes up.
	done := make(chan error, 1)
	go func() { done <- bgCmd.Wait() }()

	for i := 0; i < 50; i++ {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("daemon exited during startup: %w", err)
			}
			return fmt.Errorf("daemon exited during startup")
		default:
		}

		time.Sleep(100 * time.Millisecond)
		if client.IsRunning() {
			out.Success(fmt.Sprintf("Daemon started (pid: %d)", bgCmd.Process.Pid))
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

func runDaemonForeground(ctx context.Context, cmd *cobra.Command, root string, cfg *config.Config, daemonCfg daemon.Config, watch bool) error {
	out := output.New(cmd.OutOrStdout())

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = logPathFor(root, cfg)
	if debugMode {
		logCfg.Level = "debug"
	}
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := openEngine(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	watchOpts := watcher.DefaultOptions()
	if segments, err := h.Store.ListExcludedPaths(ctx); err == nil {
		watchOpts.IgnoreSegments = segments
	}

	d, err := daemon.New(daemon.Options{
		Config:       daemonCfg,
		Engine:       h.Engine,
		VaultPath:    cfg.Vault.Path,
		Interval:     cfg.UpdateInterval(),
		Watch:        watch,
		WatchOptions: watchOpts,
		Logger:       slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	out.Status("", "Daemon running in foreground")
	out.Status("", fmt.Sprintf("Vault:  %s", cfg.Vault.Path))
	out.Status("", fmt.Sprintf("Socket: %s", daemonCfg.SocketPath))
	out.Status("", fmt.Sprintf("Logs:   %s", logCfg.FilePath))
	out.Status("", "Press Ctrl+C to stop")
	out.Newline()

	return d.Run(ctx)
}

func runDaemonStop(ctx context.Context, cmd *cobra.Command, vault string) error {
	out := output.New(cmd.OutOrStdout())

	root, _, err := resolveVault(vault)
	if err != nil {
		return err
	}
	daemonCfg := daemon.DefaultConfig(config.GladysDir(root))

	client := daemon.NewClient(daemonCfg)
	if !client.IsRunning() {
		out.Status("", "Daemon is not running")
		return nil
	}

	if err := client.Stop(ctx); err != nil {
		// Socket is up but unresponsive; fall back to a signal.
		pidfile := daemon.NewPIDFile(daemonCfg.PIDPath)
		if sigErr := pidfile.Signal(syscall.SIGTERM); sigErr != nil {
			return fmt.Errorf("stop daemon: %w", err)
		}
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !client.IsRunning() {
			out.Success("Daemon stopped")
			return nil
		}
	}
	return fmt.Errorf("daemon did not stop within timeout")
}

func runDaemonStatus(ctx context.Context, cmd *cobra.Command, vault string, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	root, _, err := resolveVault(vault)
	if err != nil {
		return err
	}
	daemonCfg := daemon.DefaultConfig(config.GladysDir(root))

	client := daemon.NewClient(daemonCfg)
	if !client.IsRunning() {
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(daemon.StatusResult{Running: false})
		}
		out.Status("", "Daemon is not running")
		out.Status("", "Run 'gladys daemon start' to start it")
		return nil
	}

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	out.Status("", "Daemon is running")
	out.Status("", fmt.Sprintf("  PID:         %d", status.PID))
	out.Status("", fmt.Sprintf("  Uptime:      %s", status.Uptime))
	out.Status("", fmt.Sprintf("  Vault:       %s", status.VaultPath))
	out.Status("", fmt.Sprintf("  Engine:      %s (%d chunks indexed)", status.EngineState, status.IndexSize))
	if !status.LastUpdate.IsZero() {
		out.Status("", fmt.Sprintf("  Last update: %s", status.LastUpdate.Format("2006-01-02 15:04:05 MST")))
	}
	out.Status("", fmt.Sprintf("  Refresher:   %s (%d runs, %d failures, %d skips)",
		status.Refresher.State, status.Refresher.Runs, status.Refresher.Failures, status.Refresher.Skips))
	if status.Watcher != "" {
		out.Status("", fmt.Sprintf("  Watcher:     %s", status.Watcher))
	}
	out.Status("", fmt.Sprintf("  Socket:      %s", daemonCfg.SocketPath))

	return nil
}

func runDaemonUpdate(ctx context.Context, cmd *cobra.Command, vault string) error {
	out := output.New(cmd.OutOrStdout())

	root, _, err := resolveVault(vault)
	if err != nil {
		return err
	}
	daemonCfg := daemon.DefaultConfig(config.GladysDir(root))

	client := daemon.NewClient(daemonCfg)
	if !client.IsRunning() {
		return fmt.Errorf("daemon is not running; run 'gladys index' for a one-off cycle")
	}

	result, err := client.Update(ctx)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	out.Success(fmt.Sprintf("Cycle %s finished in %s (%d chunks indexed)",
		result.CycleID, result.Duration, result.IndexSize))
	return nil
}
