package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_Offline(t *testing.T) {
	vault := t.TempDir()

	cmd := newDoctorCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--vault", vault, "--offline"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Gladys System Check")
	assert.Contains(t, output, "vault_path")
	assert.Contains(t, output, "state_dir")
	assert.NotContains(t, output, "embedder")
}

func TestDoctorCmd_JSON(t *testing.T) {
	vault := t.TempDir()

	cmd := newDoctorCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--vault", vault, "--offline", "--json"})

	err := cmd.Execute()

	require.NoError(t, err)

	var report doctorReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.NotEmpty(t, report.Status)
	assert.NotEmpty(t, report.Checks)

	names := make([]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "vault_path")
	assert.Contains(t, names, "config")
}
