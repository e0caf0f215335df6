package preflight

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
)

func TestCheckStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", CheckStatus(99).String())
}

func TestCheckVaultPath(t *testing.T) {
	c := New()

	dir := t.TempDir()
	result := c.CheckVaultPath(dir)
	assert.Equal(t, StatusPass, result.Status)
	assert.True(t, result.Required)

	result = c.CheckVaultPath(filepath.Join(dir, "missing"))
	assert.Equal(t, StatusFail, result.Status)
	assert.True(t, result.IsCritical())

	file := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	result = c.CheckVaultPath(file)
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "not a directory")
}

func TestCheckStateDir_CreatesMissing(t *testing.T) {
	c := New()
	stateDir := filepath.Join(t.TempDir(), ".gladys")

	result := c.CheckStateDir(stateDir)
	assert.Equal(t, StatusPass, result.Status)
	assert.DirExists(t, stateDir)

	// The write probe cleans up after itself.
	entries, err := os.ReadDir(stateDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckConfig(t *testing.T) {
	c := New()

	result := c.CheckConfig(config.NewConfig())
	assert.Equal(t, StatusPass, result.Status)

	bad := config.NewConfig()
	bad.Search.BM25Weight = 0.9
	bad.Search.SemanticWeight = 0.9
	result = c.CheckConfig(bad)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckDiskSpace(t *testing.T) {
	c := New()
	result := c.CheckDiskSpace(t.TempDir())
	assert.Equal(t, "disk_space", result.Name)
	// Temp dirs on a healthy machine clear the 100MB bar.
	assert.Equal(t, StatusPass, result.Status)
}

func TestCheckFileDescriptors(t *testing.T) {
	c := New()
	result := c.CheckFileDescriptors()
	assert.Equal(t, "file_descriptors", result.Name)
	assert.NotEqual(t, CheckStatus(99), result.Status)
}

func TestRunAll_Offline(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Vault.Path = t.TempDir()
	stateDir := filepath.Join(cfg.Vault.Path, ".gladys")

	c := New(WithOffline(true))
	results := c.RunAll(context.Background(), cfg, stateDir)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "vault_path")
	assert.Contains(t, names, "state_dir")
	assert.Contains(t, names, "config")
	assert.NotContains(t, names, "embedder", "offline mode skips network probes")

	assert.False(t, c.HasCriticalFailures(results))
	assert.Equal(t, "ready", c.SummaryStatus(results))
}

func TestSummaryStatus(t *testing.T) {
	c := New()

	assert.Equal(t, "ready", c.SummaryStatus([]CheckResult{
		{Status: StatusPass, Required: true},
	}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{
		{Status: StatusPass, Required: true},
		{Status: StatusWarn},
	}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{
		{Status: StatusFail, Required: false},
	}))
	assert.Equal(t, "failed", c.SummaryStatus([]CheckResult{
		{Status: StatusFail, Required: true},
	}))
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf), WithVerbose(true))

	c.PrintResults([]CheckResult{
		{Name: "vault_path", Status: StatusPass, Message: "/vault", Required: true},
		{Name: "embedder", Status: StatusWarn, Message: "unreachable", Details: "falls back to static"},
		{Name: "disk_space", Status: StatusFail, Message: "too small", Required: true},
	})

	out := buf.String()
	assert.Contains(t, out, "Gladys System Check")
	assert.Contains(t, out, "[PASS] vault_path: /vault")
	assert.Contains(t, out, "[WARN] embedder: unreachable")
	assert.Contains(t, out, "falls back to static")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s):")
	assert.Contains(t, out, "1 warning(s):")
}
