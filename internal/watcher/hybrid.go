package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher implements Watcher with fsnotify as the primary
// mechanism and polling as the fallback.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool
	debouncer   *Debouncer
	triggers    chan Trigger
	errors      chan error
	stopCh      chan struct{}
	rootPath    string
	opts        Options

	mu      sync.RWMutex
	stopped bool
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a watcher, preferring fsnotify.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow, opts.TriggerBufferSize),
		triggers:  make(chan Trigger, opts.TriggerBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching the vault root. Blocks until the context is
// cancelled or Stop is called.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve vault root: %w", err)
	}
	h.rootPath = absPath

	go h.forwardTriggers(ctx)

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.addRecursive(h.rootPath); err != nil {
		return fmt.Errorf("register vault directories: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case c, ok := <-h.pollWatcher.Changes():
				if !ok {
					return
				}
				if h.shouldIgnore(c.Path) {
					continue
				}
				h.debouncer.Add(c.Path)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	if h.shouldIgnore(relPath) {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		// Keep new subtrees covered.
		if isDir {
			_ = h.addRecursive(event.Name)
		}
	case event.Op&fsnotify.Chmod != 0:
		return
	case event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0:
		return
	}

	h.debouncer.Add(relPath)
}

// forwardTriggers pumps debounced triggers to the output channel.
func (h *HybridWatcher) forwardTriggers(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case trig, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			h.emitTrigger(trig)
		}
	}
}

// addRecursive registers every non-ignored directory under root with
// fsnotify.
func (h *HybridWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(h.rootPath, path)
		if relPath == "." {
			return h.fsWatcher.Add(path)
		}
		if h.shouldIgnore(relPath) {
			return filepath.SkipDir
		}
		return h.fsWatcher.Add(path)
	})
}

// shouldIgnore filters paths that can never affect the index: dot
// files and directories (.git, .gladys, .obsidian, hidden notes) and
// the configured ignore segments. The engine's scan applies the full
// filter set; this only keeps obvious noise from triggering cycles.
func (h *HybridWatcher) shouldIgnore(relPath string) bool {
	if relPath == "." || relPath == "" {
		return true
	}

	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
		for _, seg := range h.opts.IgnoreSegments {
			if part == seg {
				return true
			}
		}
	}
	return false
}

func (h *HybridWatcher) emitTrigger(trig Trigger) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.triggers <- trig:
	default:
		// A pending trigger already guarantees a cycle; merging the
		// paths is unnecessary.
	}
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()
	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.triggers)
	close(h.errors)
	return nil
}

// Triggers returns the channel of debounced update triggers.
func (h *HybridWatcher) Triggers() <-chan Trigger {
	return h.triggers
}

// Errors returns the channel of non-fatal errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// Backend reports which mechanism is active, "fsnotify" or "polling".
func (h *HybridWatcher) Backend() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// IsHealthy reports whether the watcher is still running.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}
