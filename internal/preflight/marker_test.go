package preflight

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsCheck(t *testing.T) {
	stateDir := t.TempDir()

	assert.True(t, NeedsCheck(stateDir), "no marker yet")

	require.NoError(t, MarkPassed(stateDir))
	assert.False(t, NeedsCheck(stateDir))
}

func TestMarkPassed_CreatesStateDir(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".gladys")

	require.NoError(t, MarkPassed(stateDir))
	assert.FileExists(t, filepath.Join(stateDir, MarkerFile))
}

func TestClearMarker(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, MarkPassed(stateDir))

	require.NoError(t, ClearMarker(stateDir))
	assert.True(t, NeedsCheck(stateDir))

	// Clearing an absent marker is not an error.
	assert.NoError(t, ClearMarker(stateDir))
}

func TestMarkerAge(t *testing.T) {
	stateDir := t.TempDir()

	assert.Zero(t, MarkerAge(stateDir), "no marker")

	require.NoError(t, MarkPassed(stateDir))
	age := MarkerAge(stateDir)
	assert.GreaterOrEqual(t, age, time.Duration(0))
	assert.Less(t, age, time.Minute)
}

func TestMarkerAge_InvalidContent(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, MarkerFile), []byte("garbage"), 0o644))

	assert.Zero(t, MarkerAge(stateDir))
}
