package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func openTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
		return nil
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDisabledLimiterAllows(t *testing.T) {
	var nilLimiter *Limiter
	if nilLimiter.Enabled() {
		t.Fatalf("nil limiter must be disabled")
	}
	d, err := New(nil, "p:", 1, time.Minute).Allow(context.Background(), "ip")
	if !errors.Is(err, ErrNotConfigured) || !d.Allowed {
		t.Fatalf("expected allowed with ErrNotConfigured, got %+v %v", d, err)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]int{
		0:                       1,
		300 * time.Millisecond:  1,
		1500 * time.Millisecond: 2,
		time.Minute:             60,
	}
	for wait, want := range cases {
		if got := (Decision{RetryAfter: wait}).RetryAfterSeconds(); got != want {
			t.Fatalf("wait %v: expected %d, got %d", wait, want, got)
		}
	}
}

func TestFixedWindow(t *testing.T) {
	client := openTestRedis(t)
	limiter := New(client, "test:ratelimit:"+uuid.NewString()+":", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d: expected allowed, got %+v %v", i, d, err)
		}
	}
	d, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed || d.Remaining != 0 || d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("expected third hit limited, got %+v", d)
	}

	other, err := limiter.Allow(ctx, "10.0.0.2")
	if err != nil || !other.Allowed || other.Remaining != 1 {
		t.Fatalf("keys must be independent, got %+v %v", other, err)
	}
}
