package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHybrid(t *testing.T, dir string, opts Options) *HybridWatcher {
	t.Helper()
	if opts.DebounceWindow == 0 {
		opts.DebounceWindow = 50 * time.Millisecond
	}
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	go func() { _ = w.Start(context.Background(), dir) }()
	t.Cleanup(func() { _ = w.Stop() })
	// Let the recursive registration finish.
	time.Sleep(100 * time.Millisecond)
	return w
}

func waitTrigger(t *testing.T, w *HybridWatcher) Trigger {
	t.Helper()
	select {
	case trig, ok := <-w.Triggers():
		require.True(t, ok, "trigger channel closed")
		return trig
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a trigger")
		return Trigger{}
	}
}

func TestHybridWatcher_FileWriteTriggers(t *testing.T) {
	dir := t.TempDir()
	w := startHybrid(t, dir, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.md"), []byte("hello"), 0o644))

	trig := waitTrigger(t, w)
	assert.Contains(t, trig.Paths, "note.md")
	assert.False(t, trig.At.IsZero())
}

func TestHybridWatcher_BurstYieldsOneTrigger(t *testing.T) {
	dir := t.TempDir()
	w := startHybrid(t, dir, Options{DebounceWindow: 100 * time.Millisecond})

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "bulk"+string(rune('a'+i))+".md")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}

	trig := waitTrigger(t, w)
	assert.GreaterOrEqual(t, len(trig.Paths), 1)

	// The whole burst fit in one debounce window.
	select {
	case extra := <-w.Triggers():
		t.Fatalf("unexpected second trigger: %v", extra.Paths)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHybridWatcher_NewDirectoryIsCovered(t *testing.T) {
	dir := t.TempDir()
	w := startHybrid(t, dir, Options{})

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitTrigger(t, w) // directory creation itself

	require.NoError(t, os.WriteFile(filepath.Join(sub, "inner.md"), []byte("x"), 0o644))

	trig := waitTrigger(t, w)
	assert.Contains(t, trig.Paths, filepath.Join("sub", "inner.md"))
}

func TestHybridWatcher_DotPathsIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".gladys"), 0o755))
	w := startHybrid(t, dir, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gladys", "state.db"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))

	select {
	case trig := <-w.Triggers():
		t.Fatalf("dot paths should not trigger: %v", trig.Paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestHybridWatcher_IgnoreSegments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Private"), 0o755))
	w := startHybrid(t, dir, Options{IgnoreSegments: []string{"Private"}})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Private", "secret.md"), []byte("x"), 0o644))

	select {
	case trig := <-w.Triggers():
		t.Fatalf("ignored segment should not trigger: %v", trig.Paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestHybridWatcher_StopClosesChannels(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Triggers()
	assert.False(t, ok)
	assert.False(t, w.IsHealthy())
}

func TestHybridWatcher_Backend(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Contains(t, []string{"fsnotify", "polling"}, w.Backend())
}
