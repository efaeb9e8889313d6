package resilience

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		require.NoError(t, cb.Allow())
		cb.Record(eris.New("fail"))
	}
	assert.Equal(t, CircuitClosed, cb.State())

	require.NoError(t, cb.Allow())
	cb.Record(eris.New("fail"))
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	cb.Record(eris.New("fail"))
	cb.Record(nil)
	cb.Record(eris.New("fail"))

	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 30 * time.Second}).
		WithNow(func() time.Time { return now })

	cb.Record(eris.New("fail"))
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	now = now.Add(31 * time.Second)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Successful probe closes the circuit.
	cb.Record(nil)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 30 * time.Second}).
		WithNow(func() time.Time { return now })

	cb.Record(eris.New("fail"))
	now = now.Add(31 * time.Second)
	require.NoError(t, cb.Allow())

	cb.Record(eris.New("probe fail"))
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	cb.Record(eris.New("fail"))
	cb.Reset()

	assert.Equal(t, []string{"closed>open", "open>closed"}, transitions)
}
