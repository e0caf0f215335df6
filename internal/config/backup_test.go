package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserConfig(t *testing.T, content string) string {
	t.Helper()
	path := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBackupUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Run("no config means no backup", func(t *testing.T) {
		path, err := BackupUserConfig()
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("creates timestamped copy", func(t *testing.T) {
		writeUserConfig(t, "version: 1\n")

		backupPath, err := BackupUserConfig()
		require.NoError(t, err)
		require.NotEmpty(t, backupPath)

		data, err := os.ReadFile(backupPath)
		require.NoError(t, err)
		assert.Equal(t, "version: 1\n", string(data))
		assert.Contains(t, backupPath, BackupSuffix)
	})
}

func TestBackupPruning(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configPath := writeUserConfig(t, "version: 1\n")

	// Seed more backups than the cap, with distinct mtimes.
	for i := 0; i < MaxBackups+2; i++ {
		stamp := time.Now().Add(time.Duration(-i) * time.Hour).Format("20060102-150405")
		backup := configPath + BackupSuffix + "." + stamp
		require.NoError(t, os.WriteFile(backup, []byte("old"), 0o644))
		mtime := time.Now().Add(time.Duration(-i) * time.Hour)
		require.NoError(t, os.Chtimes(backup, mtime, mtime))
	}

	_, err := BackupUserConfig()
	require.NoError(t, err)

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestListUserConfigBackupsNewestFirst(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configPath := writeUserConfig(t, "version: 1\n")

	old := configPath + BackupSuffix + ".20240101-000000"
	recent := configPath + BackupSuffix + ".20250101-000000"
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(recent, []byte("recent"), 0o644))

	oldTime := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, oldTime, oldTime))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, recent, backups[0])
}

func TestRestoreUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configPath := writeUserConfig(t, "version: 1\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)

	// Overwrite, then restore.
	require.NoError(t, os.WriteFile(configPath, []byte("version: 2\n"), 0o644))
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestRestoreMissingBackupFails(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	err := RestoreUserConfig("/nonexistent/config.yaml.bak.20250101-000000")
	assert.Error(t, err)
}
