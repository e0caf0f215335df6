// Package daemon runs the index maintainer headless: the refresher
// keeps the vault current, a unix socket answers status, update, and
// stop requests from the CLI, and pidfile plus lock file guarantee one
// maintainer per vault.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the daemon's filesystem and timing settings.
type Config struct {
	// SocketPath is the unix domain socket for control requests.
	SocketPath string

	// PIDPath stores the daemon's process id.
	PIDPath string

	// LockPath is the cross-process refresh lock.
	LockPath string

	// Timeout bounds one client request round-trip. Default: 30s.
	Timeout time.Duration

	// ShutdownGracePeriod is how long Run waits for in-flight work
	// after a stop request. Default: 10s.
	ShutdownGracePeriod time.Duration
}

// DefaultConfig places the control files in the vault's state
// directory.
func DefaultConfig(stateDir string) Config {
	return Config{
		SocketPath:          filepath.Join(stateDir, "daemon.sock"),
		PIDPath:             filepath.Join(stateDir, "daemon.pid"),
		LockPath:            filepath.Join(stateDir, "refresh.lock"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.PIDPath == "" {
		return fmt.Errorf("pid path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}

// EnsureDir creates the directories for the control files.
func (c Config) EnsureDir() error {
	for _, p := range []string{c.SocketPath, c.PIDPath, c.LockPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}
	return nil
}
