package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IgorArodrigues/Gladys-IA/internal/async"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
	"github.com/IgorArodrigues/Gladys-IA/internal/watcher"
)

// Updater is the engine surface the daemon drives.
type Updater interface {
	UpdateIndex(ctx context.Context) error
	State() index.State
	Size() int
	LastUpdate() time.Time
}

// Options wires a Daemon.
type Options struct {
	Config    Config
	Engine    Updater
	VaultPath string

	// Interval between scheduled cycles.
	Interval time.Duration

	// Watch enables the filesystem trigger alongside the timer.
	Watch        bool
	WatchOptions watcher.Options

	Logger *slog.Logger
}

// Daemon owns the background refresher, the optional filesystem
// watcher, and the control socket. Every update cycle gets a uuid
// carried through the logs so one cycle's lines can be correlated.
type Daemon struct {
	cfg       Config
	engine    Updater
	vaultPath string
	logger    *slog.Logger

	refresher *async.Refresher
	watch     *watcher.HybridWatcher
	server    *Server
	pidfile   *PIDFile

	stopCancel context.CancelFunc
}

// New builds a Daemon. Run does the actual work.
func New(opts Options) (*Daemon, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		cfg:       opts.Config,
		engine:    opts.Engine,
		vaultPath: opts.VaultPath,
		logger:    logger.With("component", "daemon"),
		pidfile:   NewPIDFile(opts.Config.PIDPath),
	}

	refresher, err := async.New(async.Config{
		Interval:   opts.Interval,
		LockPath:   opts.Config.LockPath,
		RunOnStart: true,
		Update:     d.runCycle,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	d.refresher = refresher

	if opts.Watch {
		w, err := watcher.NewHybridWatcher(opts.WatchOptions)
		if err != nil {
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		d.watch = w
	}

	d.server = NewServer(opts.Config.SocketPath, logger)
	d.server.SetHandler(d)
	return d, nil
}

// Run starts everything and blocks until the context is cancelled or a
// stop request arrives. The pidfile and socket are cleaned up on exit.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDir(); err != nil {
		return err
	}
	if err := d.pidfile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := d.pidfile.Remove(); err != nil {
			d.logger.Warn("pidfile cleanup failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.stopCancel = cancel

	if err := d.refresher.Start(ctx); err != nil {
		return err
	}
	defer d.refresher.Stop()

	if d.watch != nil {
		go func() {
			if err := d.watch.Start(ctx, d.vaultPath); err != nil && ctx.Err() == nil {
				d.logger.Error("watcher exited", "error", err)
			}
		}()
		go d.consumeTriggers(ctx)
		defer func() { _ = d.watch.Stop() }()
	}

	err := d.server.ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// consumeTriggers funnels watcher triggers into the refresher, which
// shares the engine's single-flight gate with the timer.
func (d *Daemon) consumeTriggers(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trig, ok := <-d.watch.Triggers():
			if !ok {
				return
			}
			d.logger.Debug("filesystem trigger", "paths", len(trig.Paths))
			d.refresher.Trigger()
		case err, ok := <-d.watch.Errors():
			if !ok {
				return
			}
			d.logger.Warn("watcher error", "error", err)
		}
	}
}

// runCycle is the refresher's update function.
func (d *Daemon) runCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	logger := d.logger.With("cycle_id", cycleID)

	logger.Info("update cycle starting")
	started := time.Now()
	err := d.engine.UpdateIndex(ctx)
	if err != nil {
		logger.Error("update cycle failed", "error", err, "elapsed", time.Since(started))
		return err
	}
	logger.Info("update cycle finished",
		"index_size", d.engine.Size(), "elapsed", time.Since(started))
	return nil
}

// HandleUpdate runs one cycle for a control request.
func (d *Daemon) HandleUpdate(ctx context.Context) (UpdateResult, error) {
	cycleID := uuid.NewString()
	logger := d.logger.With("cycle_id", cycleID)

	logger.Info("manual update requested")
	started := time.Now()
	if err := d.engine.UpdateIndex(ctx); err != nil {
		return UpdateResult{}, err
	}

	return UpdateResult{
		CycleID:   cycleID,
		State:     string(d.engine.State()),
		IndexSize: d.engine.Size(),
		Duration:  time.Since(started).Round(time.Millisecond).String(),
	}, nil
}

// HandleStatus reports the engine's and refresher's state.
func (d *Daemon) HandleStatus() StatusResult {
	status := StatusResult{
		VaultPath:   d.vaultPath,
		EngineState: string(d.engine.State()),
		IndexSize:   d.engine.Size(),
		LastUpdate:  d.engine.LastUpdate(),
		Refresher:   d.refresher.Status(),
	}
	if d.watch != nil {
		status.Watcher = d.watch.Backend()
	}
	return status
}

// HandleStop cancels Run's context.
func (d *Daemon) HandleStop() {
	d.logger.Info("stop requested")
	if d.stopCancel != nil {
		d.stopCancel()
	}
}
