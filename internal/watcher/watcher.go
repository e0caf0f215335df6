// Package watcher turns filesystem activity into index update triggers.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify with recursive directory registration
//   - Fallback: polling for environments where fsnotify fails
//     (network mounts, some container volumes)
//
// Individual file events are debounced and coalesced: a burst of saves
// from an editor or a sync tool produces one Trigger, and the engine's
// own change detection works out what actually changed. Triggers go
// through the same single-flight entry point as the timer and the CLI.
package watcher

import (
	"context"
	"time"
)

// Change is one observed filesystem change, vault-relative.
type Change struct {
	Path  string
	IsDir bool
	At    time.Time
}

// Trigger is a debounced batch of changes that warrants one update
// cycle. Paths are unique and sorted; they are informational only.
type Trigger struct {
	Paths []string
	At    time.Time
}

// Watcher is the common surface of the fsnotify and polling backends.
type Watcher interface {
	// Start begins watching the vault root recursively. It blocks
	// until the context is cancelled or Stop is called.
	Start(ctx context.Context, root string) error

	// Stop releases resources. Safe to call multiple times.
	Stop() error

	// Triggers returns the channel of debounced update triggers.
	// Closed when the watcher stops.
	Triggers() <-chan Trigger

	// Errors returns non-fatal watcher errors; the watcher keeps
	// running. Closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is how long to wait after the last event before
	// emitting a trigger. Default: 500ms.
	DebounceWindow time.Duration

	// PollInterval is the scan interval for the polling fallback.
	// Default: 5s.
	PollInterval time.Duration

	// TriggerBufferSize is the trigger channel buffer. Default: 16.
	TriggerBufferSize int

	// IgnoreSegments are path components that never produce triggers,
	// on top of the built-in dot-directory filtering. Typically the
	// vault's excluded path segments.
	IgnoreSegments []string
}

// DefaultOptions returns the stock watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:    500 * time.Millisecond,
		PollInterval:      5 * time.Second,
		TriggerBufferSize: 16,
	}
}

// WithDefaults fills zero values with defaults.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.TriggerBufferSize <= 0 {
		o.TriggerBufferSize = defaults.TriggerBufferSize
	}
	return o
}
