package screening

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Minute, nil)

	assessment := &Assessment{ID: "a-1", OrderID: "o-1", Score: 20, Level: risk.RiskLevelMedium, Signals: []risk.FraudSignal{}, AssessedAt: fixedNow}
	payload, err := json.Marshal(assessment)
	require.NoError(t, err)

	mock.ExpectSet("risk:assessment:o-1", payload, time.Minute).SetVal("OK")
	mock.ExpectGet("risk:assessment:o-1").SetVal(string(payload))

	require.NoError(t, cache.Set(context.Background(), assessment))

	got, err := cache.Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, assessment, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Minute, nil)

	mock.ExpectGet("risk:assessment:o-2").RedisNil()

	got, err := cache.Get(context.Background(), "o-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Invalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Minute, nil)

	mock.ExpectDel("risk:assessment:o-1").SetVal(1)

	require.NoError(t, cache.Invalidate(context.Background(), "o-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetRetriesTransientError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Minute, nil)

	assessment := &Assessment{ID: "a-3", OrderID: "o-3", Score: 45, Level: risk.RiskLevelHigh, Signals: []risk.FraudSignal{}, AssessedAt: fixedNow}
	payload, err := json.Marshal(assessment)
	require.NoError(t, err)

	mock.ExpectGet("risk:assessment:o-3").SetErr(errors.New("read: connection reset by peer"))
	mock.ExpectGet("risk:assessment:o-3").SetVal(string(payload))

	got, err := cache.Get(context.Background(), "o-3")
	require.NoError(t, err)
	assert.Equal(t, assessment, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_BreakerOpensOnRedisFailures(t *testing.T) {
	db, mock := redismock.NewClientMock()
	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "assessment-cache-test",
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, resilience.GracefulDegradation("redis"))
	cache := NewCache(db, time.Minute, breaker)

	// Not retryable, so each Get makes exactly one call.
	wrongType := errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	mock.ExpectGet("risk:assessment:o-1").SetErr(wrongType)
	mock.ExpectGet("risk:assessment:o-1").SetErr(wrongType)

	for i := 0; i < 2; i++ {
		_, err := cache.Get(context.Background(), "o-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}

	_, err := cache.Get(context.Background(), "o-1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}
