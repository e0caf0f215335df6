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

func startPoller(t *testing.T, dir string) *PollingWatcher {
	t.Helper()
	p := NewPollingWatcher(20 * time.Millisecond)
	go func() { _ = p.Start(context.Background(), dir) }()
	t.Cleanup(func() { _ = p.Stop() })
	// Give the baseline walk a moment.
	time.Sleep(50 * time.Millisecond)
	return p
}

func receiveChange(t *testing.T, p *PollingWatcher) Change {
	t.Helper()
	select {
	case c, ok := <-p.Changes():
		require.True(t, ok)
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change")
		return Change{}
	}
}

func TestPollingWatcher_DetectsCreate(t *testing.T) {
	dir := t.TempDir()
	p := startPoller(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.md"), []byte("x"), 0o644))

	c := receiveChange(t, p)
	assert.Equal(t, "new.md", c.Path)
	assert.False(t, c.IsDir)
}

func TestPollingWatcher_DetectsModify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	p := startPoller(t, dir)

	// Size change makes the comparison robust to coarse mtimes.
	require.NoError(t, os.WriteFile(path, []byte("version two"), 0o644))

	c := receiveChange(t, p)
	assert.Equal(t, "a.md", c.Path)
}

func TestPollingWatcher_DetectsDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	p := startPoller(t, dir)

	require.NoError(t, os.Remove(path))

	c := receiveChange(t, p)
	assert.Equal(t, "gone.md", c.Path)
}

func TestPollingWatcher_BaselineIsSilent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "preexisting.md"), []byte("x"), 0o644))
	p := startPoller(t, dir)

	select {
	case c := <-p.Changes():
		t.Fatalf("unexpected change for preexisting file: %q", c.Path)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPollingWatcher_StopIsIdempotent(t *testing.T) {
	p := NewPollingWatcher(time.Second)
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}
