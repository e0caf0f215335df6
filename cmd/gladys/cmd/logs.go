package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/logging"
	"github.com/IgorArodrigues/Gladys-IA/internal/ui"
)

// logsOptions holds CLI flags for logs.
type logsOptions struct {
	vault   string
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	logFile string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View server and daemon logs",
		Long: `View and tail the JSON logs written by the MCP server, the daemon,
and the CLI.

By default shows the last 50 lines from the vault log file
(<vault>/.gladys/logs/gladys.log), falling back to the global log.

Examples:
  gladys logs                     # last 50 lines
  gladys logs -n 200              # last 200 lines
  gladys logs -f                  # follow in real time
  gladys logs --level error       # errors only
  gladys logs --filter "cycle_id" # regex filter`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.vault, "vault", "", "Vault root (default: walk up from the working directory)")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Filter by level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by pattern (regex)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Custom log file path")

	return cmd
}

func runLogs(ctx context.Context, cmd *cobra.Command, opts logsOptions) error {
	root := ""
	if r, _, err := resolveVault(opts.vault); err == nil {
		root = r
	}

	path, err := logging.FindLogFile(opts.logFile, root)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor || ui.DetectNoColor(),
	}, cmd.OutOrStdout())

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch := make(chan logging.LogEntry, 64)
	go func() {
		for entry := range ch {
			viewer.Print([]logging.LogEntry{entry})
		}
	}()
	defer close(ch)

	return viewer.Follow(ctx, path, ch)
}
