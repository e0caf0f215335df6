package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MarkerFile records that preflight passed for a state directory, so
// routine commands skip the checks instead of paying for them on every
// invocation.
const MarkerFile = ".preflight-passed"

func markerPath(stateDir string) string {
	return filepath.Join(stateDir, MarkerFile)
}

// NeedsCheck reports whether preflight should run for this state
// directory.
func NeedsCheck(stateDir string) bool {
	_, err := os.Stat(markerPath(stateDir))
	return os.IsNotExist(err)
}

// MarkPassed writes the marker with the pass time as its content.
func MarkPassed(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}
	stamp := time.Now().Format(time.RFC3339)
	return os.WriteFile(markerPath(stateDir), []byte(stamp), 0o644)
}

// ClearMarker removes the marker, forcing a re-check on the next run.
// A missing marker is not an error.
func ClearMarker(stateDir string) error {
	err := os.Remove(markerPath(stateDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove marker file: %w", err)
	}
	return nil
}

// MarkerAge returns how long ago preflight passed, or zero when the
// marker is missing or unreadable.
func MarkerAge(stateDir string) time.Duration {
	content, err := os.ReadFile(markerPath(stateDir))
	if err != nil {
		return 0
	}
	t, err := time.Parse(time.RFC3339, string(content))
	if err != nil {
		return 0
	}
	return time.Since(t)
}
