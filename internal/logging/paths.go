package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFileName is the base name of the rotating log file.
const LogFileName = "gladys.log"

// DefaultLogDir returns the global log directory (~/.gladys/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".gladys", "logs")
	}
	return filepath.Join(home, ".gladys", "logs")
}

// DefaultLogPath returns the global log file path, used before a vault
// is configured.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}

// VaultLogPath returns the log file path inside a vault's .gladys directory.
func VaultLogPath(vaultRoot string) string {
	return filepath.Join(vaultRoot, ".gladys", "logs", LogFileName)
}

// EnsureDirFor creates the parent directory of the given file path.
func EnsureDirFor(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// FindLogFile locates the log file for viewing.
//
// Priority:
//  1. Explicit path, if provided
//  2. <vault>/.gladys/logs/gladys.log, if vaultRoot is non-empty
//  3. ~/.gladys/logs/gladys.log
//
// Returns an error naming the checked locations when nothing exists.
func FindLogFile(explicit, vaultRoot string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	var checked []string

	if vaultRoot != "" {
		vaultPath := VaultLogPath(vaultRoot)
		checked = append(checked, vaultPath)
		if _, err := os.Stat(vaultPath); err == nil {
			return vaultPath, nil
		}
	}

	globalPath := DefaultLogPath()
	checked = append(checked, globalPath)
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", fmt.Errorf("no log file found (checked: %v); run with --debug to enable file logging", checked)
}
