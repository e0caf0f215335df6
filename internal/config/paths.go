package config

import (
	"os"
	"path/filepath"
)

// Vault-relative locations of everything Gladys persists. All state lives
// under a single .gladys directory so a vault can be reset by deleting it.

// GladysDirName is the name of the state directory inside the vault.
const GladysDirName = ".gladys"

// GladysDir returns the state directory inside the vault.
func GladysDir(vaultRoot string) string {
	return filepath.Join(vaultRoot, GladysDirName)
}

// DBPath returns the SQLite database path.
func DBPath(vaultRoot string) string {
	return filepath.Join(GladysDir(vaultRoot), "gladys.db")
}

// SnapshotPath returns the vector index snapshot path.
func SnapshotPath(vaultRoot string) string {
	return filepath.Join(GladysDir(vaultRoot), "index.snap")
}

// PIDPath returns the daemon pidfile path.
func PIDPath(vaultRoot string) string {
	return filepath.Join(GladysDir(vaultRoot), "gladys.pid")
}

// SocketPath returns the daemon control socket path.
func SocketPath(vaultRoot string) string {
	return filepath.Join(GladysDir(vaultRoot), "gladys.sock")
}

// LockPath returns the update-cycle lock file path.
func LockPath(vaultRoot string) string {
	return filepath.Join(GladysDir(vaultRoot), ".lock")
}

// LogDir returns the log directory inside the vault.
func LogDir(vaultRoot string) string {
	return filepath.Join(GladysDir(vaultRoot), "logs")
}

// EnsureGladysDir creates the state directory if missing.
func EnsureGladysDir(vaultRoot string) error {
	return os.MkdirAll(GladysDir(vaultRoot), 0o755)
}
