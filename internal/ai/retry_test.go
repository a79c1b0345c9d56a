package ai

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.True(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 2, cfg.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cfg.OpenTimeout)
}

func TestCircuitBreakerClosedState(t *testing.T) {
	t.Run("allows requests", func(t *testing.T) {
		cb := NewCircuitBreaker(5, 2, 30*time.Second, zaptest.NewLogger(t))
		for i := 0; i < 10; i++ {
			assert.NoError(t, cb.Allow())
		}
	})

	t.Run("success resets failures", func(t *testing.T) {
		cb := NewCircuitBreaker(5, 2, 30*time.Second, zaptest.NewLogger(t))
		cb.RecordFailure()
		cb.RecordFailure()
		_, failures, _ := cb.Metrics()
		assert.Equal(t, 2, failures)

		cb.RecordSuccess()
		_, failures, _ = cb.Metrics()
		assert.Zero(t, failures)
	})

	t.Run("opens at threshold", func(t *testing.T) {
		cb := NewCircuitBreaker(3, 2, 30*time.Second, nil)
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		assert.Equal(t, CircuitOpen, cb.State())
		assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
	})
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 20*time.Millisecond, zaptest.NewLogger(t))
	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	t.Run("failure while probing reopens", func(t *testing.T) {
		cb.RecordFailure()
		assert.Equal(t, CircuitOpen, cb.State())
	})

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, cb.Allow())
	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.State(), "needs two half-open successes")
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerConcurrentUse(t *testing.T) {
	cb := NewCircuitBreaker(1000, 2, time.Second, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Allow()
			if i%2 == 0 {
				cb.RecordFailure()
			} else {
				cb.RecordSuccess()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", CircuitClosed.String())
	assert.Equal(t, "OPEN", CircuitOpen.String())
	assert.Equal(t, "HALF_OPEN", CircuitHalfOpen.String())
	assert.Equal(t, "UNKNOWN", CircuitState(9).String())
}
