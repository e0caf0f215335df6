package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
	"github.com/IgorArodrigues/Gladys-IA/internal/index"
)

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_UpdateBusy(t *testing.T) {
	merr := MapError(index.ErrUpdateInProgress)
	require.NotNil(t, merr)
	assert.Equal(t, ErrCodeUpdateBusy, merr.Code)
	assert.Contains(t, merr.Message, "already running")
}

func TestMapError_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("cycle refused: %w", index.ErrUpdateInProgress)
	assert.Equal(t, ErrCodeUpdateBusy, MapError(err).Code)
}

func TestMapError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, MapError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeTimeout, MapError(context.Canceled).Code)
}

func TestMapError_Categories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", glerrors.ValidationError("bad query", nil), ErrCodeInvalidParams},
		{"network", glerrors.New(glerrors.ErrCodeNetworkTimeout, "embedder timed out", nil), ErrCodeTimeout},
		{"store", glerrors.StoreError("load chunk", fmt.Errorf("locked")), ErrCodeInternalError},
		{"snapshot", glerrors.New(glerrors.ErrCodeSnapshotCorrupt, "bad magic", nil), ErrCodeIndexInconsistent},
		{"rebuild", glerrors.RebuildError("recovery exhausted", nil), ErrCodeIndexInconsistent},
		{"embedding", glerrors.EmbeddingError("embed query", fmt.Errorf("boom")), ErrCodeEmbeddingFailed},
		{"internal", glerrors.InternalError("vector search", fmt.Errorf("boom")), ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merr := MapError(tt.err)
			require.NotNil(t, merr)
			assert.Equal(t, tt.code, merr.Code)
			assert.NotEmpty(t, merr.Message)
		})
	}
}

func TestMapError_CarriesSuggestion(t *testing.T) {
	err := glerrors.New(glerrors.ErrCodeInvalidQuery, "query too long", nil).
		WithSuggestion("Shorten the query.")

	merr := MapError(err)
	assert.Contains(t, merr.Message, "query too long")
	assert.Contains(t, merr.Message, "Shorten the query.")
}

func TestMapError_UnknownError(t *testing.T) {
	merr := MapError(fmt.Errorf("something odd"))
	assert.Equal(t, ErrCodeInternalError, merr.Code)
}

func TestMCPError_Error(t *testing.T) {
	err := NewInvalidParamsError("k out of range")
	assert.Contains(t, err.Error(), "-32602")
	assert.Contains(t, err.Error(), "k out of range")
}

func TestNewMethodNotFoundError(t *testing.T) {
	err := NewMethodNotFoundError("vault_compact")
	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Contains(t, err.Message, "vault_compact")
}
