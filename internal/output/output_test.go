package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("🔍", "Checking embedder...")

	assert.Contains(t, buf.String(), "🔍")
	assert.Contains(t, buf.String(), "Checking embedder...")
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("", "Config: /vault/.gladys/config.yaml")

	assert.Equal(t, "   Config: /vault/.gladys/config.yaml\n", buf.String())
}

func TestWriter_Success(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("Index complete")

	assert.Contains(t, buf.String(), "✅")
	assert.Contains(t, buf.String(), "Index complete")
}

func TestWriter_Warning(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Warning("Embedder not available")

	assert.Contains(t, buf.String(), "⚠️")
	assert.Contains(t, buf.String(), "Embedder not available")
}

func TestWriter_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Error("Failed to connect")

	assert.Contains(t, buf.String(), "❌")
	assert.Contains(t, buf.String(), "Failed to connect")
}

func TestWriter_Statusf(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Statusf("📂", "Found %d notes in %s", 42, "/home/me/vault")

	assert.Contains(t, buf.String(), "Found 42 notes in /home/me/vault")
}

func TestWriter_Newline(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}
