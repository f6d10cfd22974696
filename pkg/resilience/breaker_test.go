package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richxcame/cod-risk/pkg/config"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(ctx context.Context) (interface{}, error) {
	return nil, testError
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "test-open",
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, NoopFallback)

	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(context.Background(), failing)
		assert.Equal(t, testError, err)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	called := false
	_, err := breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not run the operation")
}

func TestCircuitBreaker_CanceledDoesNotTrip(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{Name: "test-canceled", FailureThreshold: 1}, nil)

	_, err := breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestCircuitBreaker_GracefulDegradationFallback(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{Name: "test-degraded", Timeout: time.Minute, FailureThreshold: 1}, GracefulDegradation("redis"))

	_, err := breaker.Execute(context.Background(), failing)
	require.Error(t, err)

	_, err = breaker.Execute(context.Background(), failing)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestNewCircuitBreaker_GeneratesName(t *testing.T) {
	a := NewCircuitBreaker(Settings{}, nil)
	b := NewCircuitBreaker(Settings{}, nil)
	assert.NotEqual(t, a.Name(), b.Name())
	assert.Equal(t, "named", NewCircuitBreaker(Settings{Name: "named"}, nil).Name())
}

func TestBuildSettings_Defaults(t *testing.T) {
	s := BuildSettings("cache", config.BreakerConfig{TimeoutSeconds: -1})
	assert.Equal(t, "cache", s.Name)
	assert.Equal(t, time.Minute, s.Interval)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, uint32(5), s.FailureThreshold)
	assert.Equal(t, uint32(1), s.SuccessThreshold)

	s = BuildSettings("cache", config.BreakerConfig{IntervalSeconds: 10, TimeoutSeconds: 5, FailureThreshold: 3, SuccessThreshold: 2})
	assert.Equal(t, 10*time.Second, s.Interval)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, uint32(3), s.FailureThreshold)
	assert.Equal(t, uint32(2), s.SuccessThreshold)
}
