package resilience

import (
	"context"

	"github.com/richxcame/cod-risk/pkg/logger"
	"go.uber.org/zap"
)

// FallbackFunc is executed when the breaker is open or overloaded.
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// NoopFallback returns the breaker open error without additional handling.
func NoopFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// GracefulDegradation logs that a dependency is degraded and returns ErrCircuitOpen
// so the caller can fall through to its own path.
func GracefulDegradation(serviceName string) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		logger.WithContext(ctx).Warn("dependency degraded, circuit breaker open",
			zap.String("dependency", serviceName),
			zap.Error(err),
		)
		return nil, ErrCircuitOpen
	}
}
