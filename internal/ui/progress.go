package ui

import (
	"sync"
	"time"
)

// speedSampleInterval spaces throughput samples; per-batch timing is
// too noisy to display directly.
const speedSampleInterval = 500 * time.Millisecond

// etaSmoothingFactor weights new ETA samples against the previous
// value, smoothing batch-to-batch variance.
const etaSmoothingFactor = 0.3

// speedMeter derives items/sec from periodic progress counts.
type speedMeter struct {
	lastCount int
	lastAt    time.Time
	current   float64
	avg       float64
	peak      float64
	samples   int
}

func (s *speedMeter) reset(now time.Time) {
	*s = speedMeter{lastAt: now}
}

func (s *speedMeter) observe(count int, now time.Time) {
	elapsed := now.Sub(s.lastAt)
	if elapsed < speedSampleInterval {
		return
	}

	if delta := count - s.lastCount; delta > 0 {
		rate := float64(delta) / elapsed.Seconds()
		s.current = rate
		s.samples++
		if s.samples == 1 {
			s.avg = rate
		} else {
			s.avg = 0.2*rate + 0.8*s.avg
		}
		if rate > s.peak {
			s.peak = rate
		}
	}

	s.lastCount = count
	s.lastAt = now
}

func (s *speedMeter) stats() SpeedStats {
	return SpeedStats{Current: s.current, Avg: s.avg, Peak: s.peak}
}

// SpeedStats contains throughput metrics for display.
type SpeedStats struct {
	Current float64 // items/sec
	Avg     float64 // rolling average
	Peak    float64 // maximum observed
}

// ProgressStats contains a snapshot of current progress.
type ProgressStats struct {
	Stage       Stage
	Current     int
	Total       int
	Progress    float64
	ETA         time.Duration
	CurrentFile string
	ErrorCount  int
	WarnCount   int
	Speed       SpeedStats
}

// ProgressTracker manages progress state across stages.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu          sync.RWMutex
	stage       Stage
	current     int
	total       int
	currentFile string
	startTime   time.Time
	stageStart  time.Time
	errors      []ErrorEvent
	warnings    []ErrorEvent
	speed       speedMeter

	// Previous smoothed ETA; zero means no estimate yet.
	lastETA time.Duration
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	p := &ProgressTracker{
		stage:      StageScanning,
		startTime:  now,
		stageStart: now,
	}
	p.speed.reset(now)
	return p
}

// SetStage transitions to a new stage. Counts, the ETA estimate, and
// throughput all restart; they are not comparable across stages.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.stage = stage
	p.total = total
	p.current = 0
	p.currentFile = ""
	p.stageStart = now
	p.lastETA = 0
	p.speed.reset(now)
}

// Update updates progress within the current stage.
func (p *ProgressTracker) Update(current int, file string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	if file != "" {
		p.currentFile = file
	}
	p.speed.observe(current, time.Now())
}

// AddError records an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings = append(p.warnings, event)
	} else {
		p.errors = append(p.errors, event)
	}
}

// Progress returns the stage completion fraction, clamped to [0, 1].
func (p *ProgressTracker) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fraction(p.current, p.total)
}

func fraction(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	if current >= total {
		return 1
	}
	return float64(current) / float64(total)
}

// ETA estimates remaining time based on current progress.
// Uses a write lock because calculateETA updates the smoothing state.
func (p *ProgressTracker) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calculateETA()
}

// Elapsed returns time since tracker creation.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}

// Stats returns a snapshot of current statistics.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		Stage:       p.stage,
		Current:     p.current,
		Total:       p.total,
		Progress:    fraction(p.current, p.total),
		ETA:         p.calculateETA(),
		CurrentFile: p.currentFile,
		ErrorCount:  len(p.errors),
		WarnCount:   len(p.warnings),
		Speed:       p.speed.stats(),
	}
}

// calculateETA extrapolates stage elapsed time over the remaining
// fraction, then smooths against the previous estimate. Callers must
// hold the lock.
func (p *ProgressTracker) calculateETA() time.Duration {
	done := fraction(p.current, p.total)
	if done <= 0 || done >= 1 {
		return 0
	}

	elapsed := time.Since(p.stageStart)
	remaining := time.Duration(float64(elapsed)*(1-done)/done)
	if remaining < 0 {
		return 0
	}

	if p.lastETA == 0 {
		p.lastETA = remaining
		return remaining
	}

	p.lastETA = time.Duration(
		etaSmoothingFactor*float64(remaining) + (1-etaSmoothingFactor)*float64(p.lastETA))
	return p.lastETA
}

// Errors returns the list of recorded errors.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ErrorEvent, len(p.errors))
	copy(out, p.errors)
	return out
}

// Warnings returns the list of recorded warnings.
func (p *ProgressTracker) Warnings() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ErrorEvent, len(p.warnings))
	copy(out, p.warnings)
	return out
}

// SpeedStats returns current throughput statistics.
func (p *ProgressTracker) SpeedStats() SpeedStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.speed.stats()
}
