package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "gladys")
	assert.Contains(t, output, "Available Commands")
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{
		"init", "index", "search", "stats", "exclude",
		"daemon", "serve", "doctor", "logs", "version",
	} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "gladys version")
}

func TestRootCmd_DaemonSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"daemon", "start"},
		{"daemon", "stop"},
		{"daemon", "status"},
		{"daemon", "update"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[1], found.Name())
	}
}
