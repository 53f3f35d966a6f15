package httpx

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestNewCircuitBreaker(t *testing.T) {
	breaker := NewCircuitBreaker("verdict-breaker", 30*time.Second, 3)

	assert.NotNil(t, breaker)
	wrapper, ok := breaker.(*circuitBreakerWrapper)
	assert.True(t, ok)
	assert.Equal(t, "verdict-breaker", wrapper.breaker.Name())
}

func TestCircuitBreakerWrapper_Execute_Success(t *testing.T) {
	breaker := NewCircuitBreaker("success-test", 30*time.Second, 3)

	err := breaker.Execute(func() error {
		return nil
	})

	assert.NoError(t, err)
}

func TestCircuitBreakerWrapper_Execute_ErrorWrapping(t *testing.T) {
	breaker := NewCircuitBreaker("error-wrap-test", 30*time.Second, 3)
	testError := errors.New("original error")

	err := breaker.Execute(func() error {
		return testError
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, testError)
	assert.Contains(t, err.Error(), "breaker (error-wrap-test)")
}

func TestCircuitBreakerWrapper_Execute_Panic(t *testing.T) {
	breaker := NewCircuitBreaker("panic-test", 30*time.Second, 3)

	err := breaker.Execute(func() error {
		panic("boom")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered: boom")
}

func TestCircuitBreakerWrapper_Execute_CircuitOpen(t *testing.T) {
	breaker := NewCircuitBreaker("circuit-open-test", time.Minute, 1)

	err := breaker.Execute(func() error {
		return errors.New("first failure")
	})
	assert.Error(t, err)

	calls := 0
	err = breaker.Execute(func() error {
		calls++
		return nil
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 0, calls)
}

func TestCircuitBreakerWrapper_Execute_StateTransitions(t *testing.T) {
	breaker := NewCircuitBreaker("state-test", 100*time.Millisecond, 2)
	wrapper, _ := breaker.(*circuitBreakerWrapper) //nolint:errcheck

	assert.Equal(t, gobreaker.StateClosed, wrapper.breaker.State())

	_ = breaker.Execute(func() error { return errors.New("failure 1") }) //nolint:errcheck
	_ = breaker.Execute(func() error { return errors.New("failure 2") }) //nolint:errcheck
	assert.Equal(t, gobreaker.StateOpen, wrapper.breaker.State())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, wrapper.breaker.State())

	err := breaker.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, wrapper.breaker.State())
}

func TestNoopCircuitBreaker_Execute(t *testing.T) {
	testError := errors.New("passthrough")
	assert.NoError(t, NoopCircuitBreaker{}.Execute(func() error { return nil }))
	assert.Equal(t, testError, NoopCircuitBreaker{}.Execute(func() error { return testError }))
}
