package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by periodically walking the vault and
// comparing mtime and size against the previous pass. Fallback for
// filesystems where fsnotify does not work.
type PollingWatcher struct {
	interval time.Duration
	changes  chan Change
	errors   chan error
	stopCh   chan struct{}

	mu        sync.Mutex
	fileState map[string]fileSnapshot
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a polling watcher with the given interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		fileState: make(map[string]fileSnapshot),
		changes:   make(chan Change, 256),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start polls the root until the context is cancelled or Stop is
// called. The first walk only establishes the baseline.
func (p *PollingWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve vault root: %w", err)
	}
	p.rootPath = absPath

	if err := p.baseline(); err != nil {
		return fmt.Errorf("initial vault scan: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detect(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop stops the watcher. Safe to call multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.changes)
	close(p.errors)
	return nil
}

// Changes returns the channel of raw changes.
func (p *PollingWatcher) Changes() <-chan Change {
	return p.changes
}

// Errors returns the channel of walk errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// baseline records the current tree without emitting anything.
func (p *PollingWatcher) baseline() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.walk(func(relPath string, snap fileSnapshot) {
		p.fileState[relPath] = snap
	})
}

// detect walks the tree, emits changes against the previous pass, and
// replaces the recorded state.
func (p *PollingWatcher) detect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]fileSnapshot, len(p.fileState))
	err := p.walk(func(relPath string, snap fileSnapshot) {
		current[relPath] = snap
		prev, known := p.fileState[relPath]
		if !known || prev.modTime != snap.modTime || prev.size != snap.size {
			p.emit(Change{Path: relPath, IsDir: snap.isDir, At: time.Now()})
		}
	})
	if err != nil {
		return fmt.Errorf("walk vault for changes: %w", err)
	}

	for relPath, snap := range p.fileState {
		if _, exists := current[relPath]; !exists {
			p.emit(Change{Path: relPath, IsDir: snap.isDir, At: time.Now()})
		}
	}

	p.fileState = current
	return nil
}

// walk visits every entry under the root. Unreadable entries are
// skipped.
func (p *PollingWatcher) walk(visit func(relPath string, snap fileSnapshot)) error {
	return filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(p.rootPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		visit(relPath, fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
			isDir:   d.IsDir(),
		})
		return nil
	})
}

// emit sends a change without blocking. Caller holds the lock.
func (p *PollingWatcher) emit(c Change) {
	if p.stopped {
		return
	}
	select {
	case p.changes <- c:
	default:
		slog.Warn("polling watcher buffer full, dropping change", "path", c.Path)
	}
}
