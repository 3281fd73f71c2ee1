package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotConfigured = errors.New("redis_not_configured")

// Limiter is a fixed-window counter keyed in redis. A nil client disables
// limiting.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0 && l.window > 0
}

// Allow counts one hit against key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, ErrNotConfigured
	}
	k := l.prefix + key

	pipe := l.client.TxPipeline()
	pipe.SetNX(ctx, k, 0, l.window)
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, err
	}

	count := int(incr.Val())
	decision := Decision{
		Allowed:   count <= l.limit,
		Remaining: max(l.limit-count, 0),
	}
	if !decision.Allowed {
		wait := ttl.Val()
		if wait <= 0 {
			wait = l.window
		}
		decision.RetryAfter = wait
	}
	return decision, nil
}

// RetryAfterSeconds rounds up to whole seconds, at least one.
func (d Decision) RetryAfterSeconds() int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
