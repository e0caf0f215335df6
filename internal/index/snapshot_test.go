package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snap")
	want := &Snapshot{
		Vectors:    [][]float32{{1, 0}, {0, 1}},
		ChunkIDs:   []int64{11, 12},
		LastUpdate: time.Unix(1700000000, 0).UTC(),
		Model:      "nomic-embed-text",
		Dimensions: 2,
		Metric:     "cos",
	}

	require.NoError(t, SaveSnapshot(path, want))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.Vectors, got.Vectors)
	assert.Equal(t, want.ChunkIDs, got.ChunkIDs)
	assert.True(t, want.LastUpdate.Equal(got.LastUpdate))
	assert.Equal(t, want.Model, got.Model)
	assert.Equal(t, snapshotVersion, got.Version)
}

func TestLoadSnapshot_Missing(t *testing.T) {
	got, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.snap"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snap")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	_, err := LoadSnapshot(path)
	assert.Error(t, err)
}

func TestSaveSnapshot_ReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snap")
	first := &Snapshot{Vectors: [][]float32{{1}}, ChunkIDs: []int64{1}, Dimensions: 1}
	require.NoError(t, SaveSnapshot(path, first))

	second := &Snapshot{Vectors: [][]float32{{2}, {3}}, ChunkIDs: []int64{2, 3}, Dimensions: 1}
	require.NoError(t, SaveSnapshot(path, second))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, second.ChunkIDs, got.ChunkIDs)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshot_Valid(t *testing.T) {
	base := func() *Snapshot {
		return &Snapshot{
			Version:    snapshotVersion,
			Vectors:    [][]float32{{1, 0}},
			ChunkIDs:   []int64{1},
			Model:      "m",
			Dimensions: 2,
		}
	}

	assert.True(t, base().Valid("m", 2))

	s := base()
	s.Model = "other"
	assert.False(t, s.Valid("m", 2), "model mismatch")

	s = base()
	assert.False(t, s.Valid("m", 3), "dimension mismatch")

	s = base()
	s.ChunkIDs = []int64{1, 2}
	assert.False(t, s.Valid("m", 2), "vectors and ids must be parallel")

	s = base()
	s.Version = snapshotVersion + 1
	assert.False(t, s.Valid("m", 2), "unknown version")

	s = base()
	s.Vectors = [][]float32{{1}}
	assert.False(t, s.Valid("m", 2), "vector width mismatch")
}
