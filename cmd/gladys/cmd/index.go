package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IgorArodrigues/Gladys-IA/internal/embed"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/ui"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	vault   string
	noTUI   bool
	offline bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Run one index update cycle",
		Long: `Detect vault changes and bring the vector index up to date.

Unchanged files are skipped via content hashing; added, modified, and
removed files update the record store, then the vector index is rebuilt
and snapshotted. Progress renders as a live TUI on a terminal and as
plain lines otherwise.

Examples:
  gladys index
  gladys index --no-tui
  gladys index --vault ~/notes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.vault, "vault", "", "Vault root (default: walk up from the working directory)")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Disable the TUI, use plain line output")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use the static embedder")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	root, cfg, err := resolveVault(opts.vault)
	if err != nil {
		return err
	}
	if opts.offline {
		cfg.Embedder.Provider = "static"
	}

	cleanup := setupCLILogging(root, cfg)
	defer cleanup()

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithVaultDir(root)))

	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	progress := newProgressBridge(renderer)

	h, err := openEngine(ctx, root, cfg, index.WithProgress(progress.observe))
	if err != nil {
		return err
	}
	defer h.Close()

	started := time.Now()
	if err := h.Engine.UpdateIndex(ctx); err != nil {
		renderer.AddError(ui.ErrorEvent{Err: err})
		return err
	}

	stats, chunks := progress.summary()
	info := embed.GetInfo(ctx, h.Embedder)
	renderer.Complete(ui.CompletionStats{
		Files:    stats,
		Chunks:   chunks,
		Duration: time.Since(started),
		Stages:   progress.timings(),
		Embedder: ui.EmbedderInfo{
			Backend:    string(info.Provider),
			Model:      info.Model,
			Dimensions: info.Dimensions,
		},
	})
	return nil
}

// progressBridge adapts engine progress callbacks to renderer events
// and keeps per-stage timings for the completion summary.
type progressBridge struct {
	renderer ui.Renderer

	stage      ui.Stage
	stageStart time.Time
	timing     ui.StageTimings

	files  int
	chunks int
}

func newProgressBridge(r ui.Renderer) *progressBridge {
	return &progressBridge{renderer: r, stage: ui.StageScanning, stageStart: time.Now()}
}

func (b *progressBridge) observe(p index.Progress) {
	stage := stageFor(p.Phase)
	if stage != b.stage {
		b.closeStage()
		b.stage = stage
		b.stageStart = time.Now()
	}

	switch p.Phase {
	case index.StateScanning:
		b.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageScanning,
			Message: "scanning vault for changes",
		})
	case index.StateUpdating:
		b.files = p.Total
		b.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageChunking,
			Current:     p.Current,
			Total:       p.Total,
			CurrentFile: p.Path,
		})
	case index.StateRebuilding:
		b.chunks = p.Total
		b.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageEmbedding,
			Current:     p.Current,
			Total:       p.Total,
			CurrentFile: p.Path,
		})
	}
}

func (b *progressBridge) closeStage() {
	elapsed := time.Since(b.stageStart)
	switch b.stage {
	case ui.StageScanning:
		b.timing.Scan += elapsed
	case ui.StageChunking:
		b.timing.Chunk += elapsed
	case ui.StageEmbedding:
		b.timing.Embed += elapsed
	case ui.StageIndexing:
		b.timing.Index += elapsed
	}
}

func (b *progressBridge) summary() (files, chunks int) {
	return b.files, b.chunks
}

func (b *progressBridge) timings() ui.StageTimings {
	b.closeStage()
	return b.timing
}

func stageFor(phase index.State) ui.Stage {
	switch phase {
	case index.StateScanning:
		return ui.StageScanning
	case index.StateUpdating:
		return ui.StageChunking
	case index.StateRebuilding:
		return ui.StageEmbedding
	default:
		return ui.StageIndexing
	}
}
