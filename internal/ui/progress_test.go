package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_StageTransitions(t *testing.T) {
	p := NewProgressTracker()

	stats := p.Stats()
	assert.Equal(t, StageScanning, stats.Stage)

	p.SetStage(StageEmbedding, 100)
	p.Update(25, "notes/a.md")

	stats = p.Stats()
	assert.Equal(t, StageEmbedding, stats.Stage)
	assert.Equal(t, 25, stats.Current)
	assert.Equal(t, 100, stats.Total)
	assert.Equal(t, "notes/a.md", stats.CurrentFile)
	assert.InDelta(t, 0.25, stats.Progress, 0.001)
}

func TestProgressTracker_SetStageResetsProgress(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageChunking, 10)
	p.Update(7, "notes/a.md")

	p.SetStage(StageEmbedding, 50)

	stats := p.Stats()
	assert.Equal(t, 0, stats.Current)
	assert.Empty(t, stats.CurrentFile)
	assert.Zero(t, stats.Speed.Current)
}

func TestProgressTracker_ProgressClamped(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageIndexing, 10)
	p.Update(15, "")

	assert.Equal(t, 1.0, p.Progress())
}

func TestProgressTracker_ProgressWithoutTotal(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageScanning, 0)
	p.Update(5, "")

	assert.Zero(t, p.Progress())
	assert.Zero(t, p.ETA())
}

func TestProgressTracker_ErrorsAndWarnings(t *testing.T) {
	p := NewProgressTracker()

	p.AddError(ErrorEvent{Err: errors.New("boom")})
	p.AddError(ErrorEvent{Err: errors.New("meh"), IsWarn: true})
	p.AddError(ErrorEvent{Err: errors.New("boom2")})

	assert.Len(t, p.Errors(), 2)
	assert.Len(t, p.Warnings(), 1)

	stats := p.Stats()
	assert.Equal(t, 2, stats.ErrorCount)
	assert.Equal(t, 1, stats.WarnCount)
}

func TestProgressTracker_ETAMidStage(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageEmbedding, 100)

	time.Sleep(20 * time.Millisecond)
	p.Update(50, "")

	// Half done after ~20ms leaves roughly that much again.
	eta := p.ETA()
	assert.Greater(t, eta, time.Duration(0))
	assert.Less(t, eta, time.Second)
}

func TestProgressTracker_Elapsed(t *testing.T) {
	p := NewProgressTracker()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, p.Elapsed(), 10*time.Millisecond)
}

func TestProgressTracker_SpeedSampling(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageEmbedding, 1000)

	p.Update(10, "")
	time.Sleep(510 * time.Millisecond)
	p.Update(110, "")

	speed := p.SpeedStats()
	assert.Greater(t, speed.Current, 0.0)
	assert.Greater(t, speed.Avg, 0.0)
	assert.GreaterOrEqual(t, speed.Peak, speed.Current)
}
