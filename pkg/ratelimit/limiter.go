// Package ratelimit implements a Redis token bucket shared by every replica.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/cod-risk/pkg/config"
)

// IdentityType distinguishes callers with a verified token from everyone else
type IdentityType int

const (
	IdentityAnonymous IdentityType = iota
	IdentityAuthenticated
)

// Rule is the bucket applied to one endpoint and identity type.
// Limit tokens refill per Window; Burst extra tokens absorb spikes.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result describes the outcome of one Allow call
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// tokenBucket refills lazily on each call. It returns
// {allowed, tokens_left, retry_after_seconds, reset_after_seconds}.
// Floats are returned as strings because Redis truncates Lua numbers.
const tokenBucket = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed = 0
local retry_after = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after = (1 - tokens) / rate
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
redis.call("PEXPIRE", key, ttl)

return {allowed, tostring(tokens), tostring(retry_after), tostring((capacity - tokens) / rate)}
`

// Limiter applies token buckets stored in Redis
type Limiter struct {
	client redis.Scripter
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a limiter
func NewLimiter(client redis.Scripter, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(tokenBucket),
		now:    time.Now,
	}
}

// WithNow replaces the clock, for tests
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Enabled reports whether requests are being limited
func (l *Limiter) Enabled() bool {
	return l.cfg.Enabled
}

// RuleFor returns the rule for endpoint, applying any configured override
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	rule := Rule{Limit: l.cfg.DefaultLimit, Burst: l.cfg.DefaultBurst, Window: l.cfg.Window()}
	if identity == IdentityAnonymous {
		rule.Limit = l.cfg.AnonymousLimit
		rule.Burst = l.cfg.AnonymousBurst
	}

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		limit, burst := override.AuthenticatedLimit, override.AuthenticatedBurst
		if identity == IdentityAnonymous {
			limit, burst = override.AnonymousLimit, override.AnonymousBurst
		}
		if limit > 0 {
			rule.Limit = limit
		}
		if burst > 0 {
			rule.Burst = burst
		}
		if override.WindowSeconds > 0 {
			rule.Window = time.Duration(override.WindowSeconds) * time.Second
		}
	}

	if rule.Burst < 0 {
		rule.Burst = 0
	}
	return rule
}

// Allow takes one token for identity on endpoint. A non-positive limit means unlimited.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (*Result, error) {
	result := &Result{
		Allowed:      true,
		Remaining:    rule.Limit,
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}
	if !l.cfg.Enabled || rule.Limit <= 0 {
		return result, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
		result.Window = window
	}

	rate := float64(rule.Limit) / window.Seconds()
	capacity := rule.Limit + rule.Burst
	now := float64(l.now().UnixNano()) / float64(time.Second)
	ttl := (2 * window).Milliseconds()

	raw, err := l.script.Run(ctx, l.client, []string{l.key(endpoint, identity)},
		formatFloat(rate), capacity, formatFloat(now), ttl).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", endpoint, err)
	}
	if len(raw) != 4 {
		return nil, fmt.Errorf("rate limit %s: unexpected script reply of length %d", endpoint, len(raw))
	}

	result.Allowed = toInt(raw[0]) == 1
	result.Remaining = int(toFloat(raw[1]))
	result.RetryAfter = seconds(toFloat(raw[2]))
	result.ResetAfter = seconds(toFloat(raw[3]))
	return result, nil
}

func (l *Limiter) key(endpoint, identity string) string {
	return l.cfg.RedisPrefix + ":" + endpoint + ":" + identity
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
