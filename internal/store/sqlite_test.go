package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func chunkRecord(hash, text, path string, index int) *ChunkRecord {
	return &ChunkRecord{
		Hash:        hash,
		Text:        text,
		FilePath:    path,
		ChunkIndex:  index,
		TotalChunks: 1,
		EndChar:     len(text),
	}
}

func TestUpsertByHash_SameContentReturnsSameID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.UpsertByHash(ctx, chunkRecord("h1", "alpha", "a.md", 0))
	require.NoError(t, err)

	second, err := st.UpsertByHash(ctx, chunkRecord("h1", "alpha", "a.md", 0))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpsertByHash_ExistingRowKeepsItsOwner(t *testing.T) {
	// Given: two files sharing identical chunk text
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertByHash(ctx, chunkRecord("h1", "shared text", "a.md", 0))
	require.NoError(t, err)

	// When: the second file upserts the same hash
	dup, err := st.UpsertByHash(ctx, chunkRecord("h1", "shared text", "b.md", 3))
	require.NoError(t, err)
	require.Equal(t, id, dup)

	// Then: the row still belongs to the first file, untouched
	rec, err := st.GetChunk(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.md", rec.FilePath)
	assert.Equal(t, 0, rec.ChunkIndex)
}

func TestUpsertByHash_DuplicateFileDeletionSparesOwner(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertByHash(ctx, chunkRecord("h1", "shared text", "a.md", 0))
	require.NoError(t, err)
	_, err = st.UpsertByHash(ctx, chunkRecord("h1", "shared text", "b.md", 0))
	require.NoError(t, err)

	// Deleting the later file must not take the shared row with it.
	n, err := st.DeleteChunksByFile(ctx, "b.md")
	require.NoError(t, err)
	assert.Zero(t, n)

	remaining, err := st.ListChunksByFile(ctx, "a.md")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, id, remaining[0].ID)
}
