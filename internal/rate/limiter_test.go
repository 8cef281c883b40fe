package rate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
)

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, "", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/token")
		if err != nil {
			t.Fatalf("Allow err: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	res, err := l.Allow(ctx, "1.2.3.4|/token")
	if err != nil {
		t.Fatalf("Allow err: %v", err)
	}
	if res.Allowed || res.RetryAfter <= 0 {
		t.Fatalf("4th request should be limited with Retry-After, got %+v", res)
	}

	// otra key no comparte ventana
	if res, _ := l.Allow(ctx, "5.6.7.8|/token"); !res.Allowed {
		t.Fatal("independent key should be allowed")
	}
}

func TestRedisLimiter_WindowRollsOverAndExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, "rl:", 1, time.Minute)
	base := time.Now().Truncate(time.Minute).Add(10 * time.Second)
	l.now = func() time.Time { return base }
	mr.SetTime(base)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("first hit should be allowed")
	}
	res, err := l.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Allow err: %v", err)
	}
	if res.Allowed || res.RetryAfter != 50*time.Second {
		t.Fatalf("second hit should wait for the window end, got %+v", res)
	}

	key := fmt.Sprintf("rl:k:%d", base.Truncate(time.Minute).Unix())
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("window key must carry an expiry, ttl=%v", ttl)
	}

	l.now = func() time.Time { return base.Add(time.Minute) }
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("next window should start fresh")
	}
}

func TestMemoryLimiter_Burst(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	base := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if res, _ := l.Allow(ctx, "ip"); !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	res, _ := l.Allow(ctx, "ip")
	if res.Allowed {
		t.Fatal("3rd request should be limited")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("unexpected RetryAfter %v", res.RetryAfter)
	}

	// medio minuto después se repone un token
	l.now = func() time.Time { return base.Add(31 * time.Second) }
	if res, _ := l.Allow(ctx, "ip"); !res.Allowed {
		t.Fatal("token should have been replenished")
	}
}

func TestMemoryLimiter_SweepsIdleKeys(t *testing.T) {
	l := NewMemoryLimiter(5, time.Second)
	base := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return base }
	_, _ = l.Allow(context.Background(), "a")

	l.now = func() time.Time { return base.Add(3 * time.Second) }
	_, _ = l.Allow(context.Background(), "b")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["a"]; ok {
		t.Fatal("idle bucket should have been swept")
	}
}
