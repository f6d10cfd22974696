package health

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/cod-risk/pkg/common"
)

var (
	// ErrNilDatabase is reported when no pool was configured
	ErrNilDatabase = errors.New("database connection is nil")
	// ErrNilRedis is reported when no redis client was configured
	ErrNilRedis = errors.New("redis client is nil")
	// ErrNATSDisconnected is reported when the event bus connection is not usable
	ErrNATSDisconnected = errors.New("nats connection is not connected")
)

// PostgresChecker returns a health check function for the PostgreSQL pool
func PostgresChecker(pool *pgxpool.Pool) common.CheckFunc {
	return func(ctx context.Context) error {
		if pool == nil {
			return ErrNilDatabase
		}
		return pool.Ping(ctx)
	}
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client redis.Cmdable) common.CheckFunc {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrNilRedis
		}
		return client.Ping(ctx).Err()
	}
}

// NATSChecker returns a health check function for the NATS connection
func NATSChecker(conn *nats.Conn) common.CheckFunc {
	return func(ctx context.Context) error {
		if conn == nil || !conn.IsConnected() {
			return ErrNATSDisconnected
		}
		return conn.FlushWithContext(ctx)
	}
}
