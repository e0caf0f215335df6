package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("embedder")

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	// Given: a breaker that trips after 3 failures
	cb := NewCircuitBreaker("embedder", WithMaxFailures(3))
	boom := errors.New("connection refused")

	// When: 3 consecutive failures pass through
	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}

	// Then: the circuit is open and requests fail fast
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
	err := cb.Execute(func() error {
		t.Fatal("must not be called while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("embedder", WithMaxFailures(3))

	_ = cb.Execute(func() error { return errors.New("x") })
	_ = cb.Execute(func() error { return errors.New("x") })
	require.Equal(t, 2, cb.Failures())

	_ = cb.Execute(func() error { return nil })
	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	// Given: an open breaker with a very short reset timeout
	cb := NewCircuitBreaker("embedder",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))
	_ = cb.Execute(func() error { return errors.New("x") })
	require.Equal(t, StateOpen, cb.State())

	// When: the reset timeout elapses
	time.Sleep(15 * time.Millisecond)

	// Then: a probe request is allowed and success closes the circuit
	assert.Equal(t, StateHalfOpen, cb.State())
	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("embedder",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))
	_ = cb.Execute(func() error { return errors.New("x") })
	time.Sleep(15 * time.Millisecond)

	err := cb.Execute(func() error { return errors.New("still down") })
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_AllowRecordFlow(t *testing.T) {
	// The embedding client uses the breaker without Execute: gate with
	// Allow, then report the outcome.
	cb := NewCircuitBreaker("ollama", WithMaxFailures(2))

	require.True(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.Allow())

	cb.RecordSuccess()
	assert.True(t, cb.Allow())
	assert.Equal(t, 0, cb.Failures())
}
