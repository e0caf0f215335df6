package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/IgorArodrigues/Gladys-IA/internal/index"
)

// DefaultInterval is used when no refresh interval is configured.
const DefaultInterval = 5 * time.Minute

// UpdateFunc runs one index update cycle.
type UpdateFunc func(ctx context.Context) error

// Config configures the Refresher.
type Config struct {
	// Interval between automatic update cycles.
	Interval time.Duration

	// LockPath, when set, is a cross-process lock file. Start fails if
	// another process already holds it, so two refreshers never tick
	// the same vault.
	LockPath string

	// RunOnStart runs one cycle immediately instead of waiting for the
	// first tick.
	RunOnStart bool

	Update UpdateFunc
	Logger *slog.Logger
}

// Refresher periodically triggers index updates in a background
// goroutine. Ticks that land while an update is already running are
// counted as skips, not failures.
type Refresher struct {
	interval   time.Duration
	runOnStart bool
	update     UpdateFunc
	logger     *slog.Logger
	status     *RunStatus
	lock       *flock.Flock

	trigger chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	running bool
}

// New creates a Refresher. The update function is required.
func New(cfg Config) (*Refresher, error) {
	if cfg.Update == nil {
		return nil, fmt.Errorf("update function is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Refresher{
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		update:     cfg.Update,
		logger:     logger.With("component", "refresher"),
		status:     NewRunStatus(),
		trigger:    make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	if cfg.LockPath != "" {
		r.lock = flock.New(cfg.LockPath)
	}
	return r, nil
}

// Status returns a snapshot of the run history.
func (r *Refresher) Status() RunSnapshot {
	return r.status.Snapshot()
}

// IsRunning reports whether the background loop is active.
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start launches the background loop. Non-blocking; use Stop or Wait
// for shutdown. Returns an error when another process holds the lock.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}

	if r.lock != nil {
		if err := os.MkdirAll(filepath.Dir(r.lock.Path()), 0o755); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("create lock directory: %w", err)
		}
		acquired, err := r.lock.TryLock()
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("acquire refresh lock: %w", err)
		}
		if !acquired {
			r.mu.Unlock()
			return fmt.Errorf("refresh lock %s is held by another process", r.lock.Path())
		}
	}

	r.running = true
	r.mu.Unlock()

	go r.run(ctx)
	return nil
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.doneCh)
	defer func() {
		if r.lock != nil {
			if err := r.lock.Unlock(); err != nil {
				r.logger.Warn("refresh lock release failed", "error", err)
			}
		}
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	r.logger.Info("refresher started", "interval", r.interval)

	if r.runOnStart {
		r.runOnce(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		case <-r.trigger:
			r.runOnce(ctx)
		}
	}
}

// runOnce executes one update cycle and records it.
func (r *Refresher) runOnce(ctx context.Context) {
	started := time.Now()
	r.status.Begin()

	err := r.update(ctx)
	next := time.Now().Add(r.interval)

	switch {
	case errors.Is(err, index.ErrUpdateInProgress):
		r.logger.Debug("update already running, skipping tick")
		r.status.Skip(next)
	case errors.Is(err, context.Canceled):
		r.status.Skip(next)
	case err != nil:
		r.logger.Error("scheduled update failed", "error", err)
		r.status.Finish(started, next, err)
	default:
		r.status.Finish(started, next, nil)
	}
}

// Trigger requests an immediate cycle. Non-blocking; a pending trigger
// coalesces with later ones.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop signals the loop to exit and waits for it to finish. Safe to
// call when the refresher never started.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// Wait blocks until the background loop exits.
func (r *Refresher) Wait() {
	<-r.doneCh
}
