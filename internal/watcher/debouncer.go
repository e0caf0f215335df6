package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces rapid file changes into single triggers. Every
// Add within the window restarts the timer, so a sync tool writing
// hundreds of files yields one trigger after the burst settles.
type Debouncer struct {
	window time.Duration
	output chan Trigger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer emitting on a channel with the
// given buffer.
func NewDebouncer(window time.Duration, buffer int) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]struct{}),
		output:  make(chan Trigger, buffer),
	}
}

// Add records a changed path and restarts the debounce window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[path] = struct{}{}
	d.scheduleFlush()
}

// scheduleFlush restarts the window timer. Caller holds the lock.
func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	select {
	case d.output <- Trigger{Paths: paths, At: time.Now()}:
		d.pending = make(map[string]struct{})
	default:
		// Consumer is behind. Keep the batch pending and retry after
		// another window; changes are never dropped.
		d.scheduleFlush()
	}
}

// Output returns the trigger channel.
func (d *Debouncer) Output() <-chan Trigger {
	return d.output
}

// Pending reports how many paths await the next flush.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop closes the output channel. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
