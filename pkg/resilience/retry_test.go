package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testError      = errors.New("nats: timeout")
	errConnReset   = errors.New("connection reset by peer")
	errUniqueIndex = errors.New("duplicate key value violates unique constraint")
)

func fastRetry(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	cfg.EnableJitter = false
	return cfg
}

// flaky fails the first n calls with err and then succeeds
func flaky(n int, err error, calls *int) Operation {
	return func(ctx context.Context) (interface{}, error) {
		*calls++
		if *calls <= n {
			return nil, err
		}
		return "published", nil
	}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name        string
		cfg         RetryConfig
		failures    int
		err         error
		expectErr   error
		expectCalls int
	}{
		{"first attempt succeeds", fastRetry(3), 0, testError, nil, 1},
		{"succeeds after transient failures", fastRetry(3), 2, testError, nil, 3},
		{"gives up after max attempts", fastRetry(3), 10, testError, testError, 3},
		{"zero attempts still runs once", fastRetry(0), 10, testError, testError, 1},
		{"open breaker is not retried", fastRetry(5), 10, ErrCircuitOpen, ErrCircuitOpen, 1},
		{"canceled is not retried", fastRetry(5), 10, context.Canceled, context.Canceled, 1},
		{"deadline is not retried", fastRetry(5), 10, context.DeadlineExceeded, context.DeadlineExceeded, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, err := Retry(context.Background(), tt.cfg, flaky(tt.failures, tt.err, &calls))

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "published", result)
			}
			assert.Equal(t, tt.expectCalls, calls)
		})
	}
}

func TestRetry_RetryableErrorList(t *testing.T) {
	cfg := fastRetry(3)
	cfg.RetryableErrors = []error{errConnReset}

	calls := 0
	_, err := Retry(context.Background(), cfg, flaky(10, errConnReset, &calls))
	assert.ErrorIs(t, err, errConnReset)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = Retry(context.Background(), cfg, flaky(10, errUniqueIndex, &calls))
	assert.ErrorIs(t, err, errUniqueIndex)
	assert.Equal(t, 1, calls, "errors outside the list are not retried")
}

func TestRetry_CheckerOverridesList(t *testing.T) {
	cfg := fastRetry(3)
	cfg.RetryableErrors = []error{errConnReset}
	cfg.RetryableChecker = func(err error) bool { return errors.Is(err, errUniqueIndex) }

	calls := 0
	_, err := Retry(context.Background(), cfg, flaky(1, errUniqueIndex, &calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	_, err = Retry(context.Background(), cfg, flaky(10, errConnReset, &calls))
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(ctx context.Context) (interface{}, error) {
		calls++
		cancel()
		return nil, testError
	}

	start := time.Now()
	_, err := Retry(ctx, cfg, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRetry_AlreadyCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, fastRetry(3), flaky(0, nil, &calls))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryWithBreaker_StopsWhenBreakerOpens(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{Name: "publish-test", Timeout: time.Minute, FailureThreshold: 2}, nil)

	calls := 0
	_, err := RetryWithBreaker(context.Background(), fastRetry(10), breaker, flaky(100, testError, &calls))

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls, "breaker opens after two failures and ends the loop")
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 50 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2}

	assert.Equal(t, 50*time.Millisecond, calculateBackoff(1, cfg))
	assert.Equal(t, 100*time.Millisecond, calculateBackoff(2, cfg))
	assert.Equal(t, 400*time.Millisecond, calculateBackoff(4, cfg))
	assert.Equal(t, time.Second, calculateBackoff(10, cfg), "capped at MaxBackoff")

	cfg.BackoffMultiplier = 0
	assert.Equal(t, 50*time.Millisecond, calculateBackoff(3, cfg), "non-positive multiplier means constant backoff")
}

func TestCalculateBackoff_Jitter(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2, EnableJitter: true}
	for i := 0; i < 50; i++ {
		d := calculateBackoff(2, cfg)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

func TestAddJitter(t *testing.T) {
	assert.Zero(t, addJitter(0))
	assert.Zero(t, addJitter(-time.Second))
	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, addJitter(10*time.Millisecond), 10*time.Millisecond)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.MaxBackoff)
	assert.Equal(t, 2.0, cfg.BackoffMultiplier)
	assert.True(t, cfg.EnableJitter)
}

func TestShouldRetry_NilError(t *testing.T) {
	assert.False(t, shouldRetry(nil, DefaultRetryConfig()))
}
