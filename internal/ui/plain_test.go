package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlain(t *testing.T) (*PlainRenderer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))
	require.NoError(t, r.Start(context.Background()))
	return r, &buf
}

func TestPlainRenderer_ProgressWithTotal(t *testing.T) {
	r, buf := newPlain(t)

	r.UpdateProgress(ProgressEvent{
		Stage:       StageEmbedding,
		Current:     3,
		Total:       10,
		CurrentFile: "notes/airships.md",
	})

	assert.Equal(t, "[EMBED] 3/10 - notes/airships.md\n", buf.String())
}

func TestPlainRenderer_ProgressMessageWins(t *testing.T) {
	r, buf := newPlain(t)

	r.UpdateProgress(ProgressEvent{
		Stage:       StageScanning,
		Message:     "walking vault",
		CurrentFile: "ignored.md",
	})

	assert.Equal(t, "[SCAN] walking vault\n", buf.String())
}

func TestPlainRenderer_ProgressSilentWithoutContent(t *testing.T) {
	r, buf := newPlain(t)

	r.UpdateProgress(ProgressEvent{Stage: StageChunking})
	assert.Empty(t, buf.String())
}

func TestPlainRenderer_Errors(t *testing.T) {
	r, buf := newPlain(t)

	r.AddError(ErrorEvent{File: "notes/bad.pdf", Err: errors.New("extraction failed")})
	r.AddError(ErrorEvent{Err: errors.New("slow provider"), IsWarn: true})

	out := buf.String()
	assert.Contains(t, out, "ERROR: notes/bad.pdf: extraction failed\n")
	assert.Contains(t, out, "WARN: slow provider\n")
}

func TestPlainRenderer_Complete(t *testing.T) {
	r, buf := newPlain(t)

	r.Complete(CompletionStats{
		Files:    4,
		Chunks:   20,
		Duration: 2500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Complete: 4 files, 20 chunks indexed in 2.5s")
	assert.NotContains(t, out, "errors")
}

func TestPlainRenderer_CompleteWithBreakdown(t *testing.T) {
	r, buf := newPlain(t)

	r.Complete(CompletionStats{
		Files:    4,
		Chunks:   20,
		Duration: 3 * time.Second,
		Errors:   1,
		Warnings: 2,
		Stages: StageTimings{
			Scan:  200 * time.Millisecond,
			Chunk: 300 * time.Millisecond,
			Embed: 2 * time.Second,
			Index: 500 * time.Millisecond,
		},
		Embedder: EmbedderInfo{Backend: "ollama", Model: "nomic-embed-text", Dimensions: 768},
	})

	out := buf.String()
	assert.Contains(t, out, "(1 errors, 2 warnings)")
	assert.Contains(t, out, "Stage Breakdown:")
	assert.Contains(t, out, "documents split")
	assert.Contains(t, out, "20 chunks @ 10.0/sec")
	assert.Contains(t, out, "keyword + vector")
	assert.Contains(t, out, "Backend: ollama (nomic-embed-text, 768 dims)")
}

func TestPlainRenderer_StopIsNoop(t *testing.T) {
	r, _ := newPlain(t)
	assert.NoError(t, r.Stop())
}
