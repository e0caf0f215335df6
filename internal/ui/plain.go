package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer writes one line per event, suitable for pipes, CI logs,
// and --no-tui runs.
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress prints a stage-tagged line. Events carrying neither a
// message nor a count are dropped rather than printed empty.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}

	switch {
	case event.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	case msg != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
}

// Complete prints the summary line, then the per-stage breakdown and
// embedder backend when the caller supplied them.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d files, %d chunks indexed in %s",
		stats.Files, stats.Chunks, roundMs(stats.Duration))
	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	_, _ = fmt.Fprintln(r.out)

	if stats.Stages.Scan > 0 || stats.Stages.Embed > 0 {
		r.writeBreakdown(stats)
	}

	if b := stats.Embedder; b.Backend != "" {
		_, _ = fmt.Fprintf(r.out, "\nBackend: %s (%s, %d dims)\n", b.Backend, b.Model, b.Dimensions)
	}
}

func (r *PlainRenderer) writeBreakdown(stats CompletionStats) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintln(r.out, "Stage Breakdown:")
	_, _ = fmt.Fprintf(r.out, "  Scan:  %s (files discovered)\n", roundMs(stats.Stages.Scan))
	_, _ = fmt.Fprintf(r.out, "  Chunk: %s (documents split)\n", roundMs(stats.Stages.Chunk))
	if stats.Stages.Embed > 0 && stats.Chunks > 0 {
		rate := float64(stats.Chunks) / stats.Stages.Embed.Seconds()
		_, _ = fmt.Fprintf(r.out, "  Embed: %s (%d chunks @ %.1f/sec)\n", roundMs(stats.Stages.Embed), stats.Chunks, rate)
	}
	_, _ = fmt.Fprintf(r.out, "  Index: %s (keyword + vector)\n", roundMs(stats.Stages.Index))
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

func roundMs(d time.Duration) time.Duration {
	return d.Round(100 * time.Millisecond)
}
