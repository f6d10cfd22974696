package screening

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/richxcame/cod-risk/pkg/redis"
	"github.com/richxcame/cod-risk/pkg/resilience"
)

// Cache keeps the latest assessment of each order in Redis behind a circuit breaker.
// Reads retry once on transient Redis errors.
type Cache struct {
	rdb       goredis.Cmdable
	ttl       time.Duration
	breaker   *resilience.CircuitBreaker
	readRetry resilience.RetryConfig
}

// NewCache creates an assessment cache
func NewCache(rdb goredis.Cmdable, ttl time.Duration, breaker *resilience.CircuitBreaker) *Cache {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.Settings{Name: "assessment-cache"}, resilience.GracefulDegradation("redis"))
	}
	return &Cache{
		rdb:     rdb,
		ttl:     ttl,
		breaker: breaker,
		readRetry: resilience.RetryConfig{
			Name:              "assessment-cache-read",
			MaxAttempts:       2,
			InitialBackoff:    10 * time.Millisecond,
			MaxBackoff:        50 * time.Millisecond,
			BackoffMultiplier: 2,
			RetryableChecker:  redis.IsRedisRetryable,
		},
	}
}

func cacheKey(orderID string) string {
	return cacheKeyPrefix + orderID
}

// Get returns the cached assessment for orderID, or nil on a miss
func (c *Cache) Get(ctx context.Context, orderID string) (*Assessment, error) {
	result, err := resilience.RetryWithBreaker(ctx, c.readRetry, c.breaker, func(ctx context.Context) (interface{}, error) {
		var a Assessment
		found, err := redis.GetJSON(ctx, c.rdb, cacheKey(orderID), &a)
		if err != nil || !found {
			return nil, err
		}
		return &a, nil
	})
	if err != nil {
		return nil, err
	}
	a, _ := result.(*Assessment)
	return a, nil
}

// Set stores assessment as the latest for its order
func (c *Cache) Set(ctx context.Context, assessment *Assessment) error {
	_, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, redis.SetJSON(ctx, c.rdb, cacheKey(assessment.OrderID), assessment, c.ttl)
	})
	return err
}

// Invalidate drops the cached assessment of orderID
func (c *Cache) Invalidate(ctx context.Context, orderID string) error {
	_, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, c.rdb.Del(ctx, cacheKey(orderID)).Err()
	})
	return err
}
