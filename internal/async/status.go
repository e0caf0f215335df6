// Package async runs the background refresher that keeps the vault
// index current between explicit update commands.
package async

import (
	"sync"
	"time"
)

// RunState is the refresher's externally visible state.
type RunState string

const (
	// RunIdle means the refresher is waiting for the next tick.
	RunIdle RunState = "idle"
	// RunUpdating means an update cycle is executing right now.
	RunUpdating RunState = "updating"
	// RunError means the last cycle failed; the refresher keeps ticking.
	RunError RunState = "error"
)

// RunSnapshot is an immutable copy of the refresher's run history.
type RunSnapshot struct {
	State        string    `json:"state"`
	Runs         int       `json:"runs"`
	Failures     int       `json:"failures"`
	Skips        int       `json:"skips"`
	LastRun      time.Time `json:"last_run"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	NextRun      time.Time `json:"next_run"`
}

// RunStatus tracks refresher runs for the status surfaces. Safe for
// concurrent use.
type RunStatus struct {
	mu sync.RWMutex

	state        RunState
	runs         int
	failures     int
	skips        int
	lastRun      time.Time
	lastDuration time.Duration
	lastError    string
	nextRun      time.Time
}

// NewRunStatus creates a tracker in the idle state.
func NewRunStatus() *RunStatus {
	return &RunStatus{state: RunIdle}
}

// Begin marks a cycle as started.
func (s *RunStatus) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = RunUpdating
}

// Finish records a completed cycle and schedules the next one.
func (s *RunStatus) Finish(started, next time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRun = started
	s.lastDuration = time.Since(started)
	s.nextRun = next

	if err != nil {
		s.failures++
		s.lastError = err.Error()
		s.state = RunError
		return
	}
	s.lastError = ""
	s.state = RunIdle
}

// Skip records a tick that found an update already running elsewhere.
func (s *RunStatus) Skip(next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skips++
	s.nextRun = next
	if s.state == RunUpdating {
		s.state = RunIdle
	}
}

// Snapshot returns an immutable copy of the current state.
func (s *RunStatus) Snapshot() RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := RunSnapshot{
		State:     string(s.state),
		Runs:      s.runs,
		Failures:  s.failures,
		Skips:     s.skips,
		LastRun:   s.lastRun,
		LastError: s.lastError,
		NextRun:   s.nextRun,
	}
	if s.lastDuration > 0 {
		snap.LastDuration = s.lastDuration.Round(time.Millisecond).String()
	}
	return snap
}
