package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 200 * time.Millisecond,
		ReadTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}), "test")
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func clientsUnderTest(t *testing.T) map[string]Client {
	_, rc := newMiniRedis(t)
	return map[string]Client{
		"memory": NewMemory("test"),
		"redis":  rc,
	}
}

func TestClient_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range clientsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
				t.Fatalf("Set err: %v", err)
			}
			if v, err := c.Get(ctx, "k"); err != nil || v != "v" {
				t.Fatalf("Get = %q, %v", v, err)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete err: %v", err)
			}
			if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := c.Delete(ctx, "missing"); err != nil {
				t.Fatalf("Delete of missing key must not fail: %v", err)
			}
		})
	}
}

func TestClient_TakeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	for name, c := range clientsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_ = c.Set(ctx, "code", "grant", time.Minute)

			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if v, err := c.Take(ctx, "code"); err == nil && v == "grant" {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			if wins != 1 {
				t.Fatalf("expected exactly one successful Take, got %d", wins)
			}
			if _, err := c.Get(ctx, "code"); !IsNotFound(err) {
				t.Fatalf("key must be gone after Take, got %v", err)
			}
		})
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")
	_ = m.Set(ctx, "short", "v", 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	if _, err := m.Get(ctx, "short"); !IsNotFound(err) {
		t.Fatalf("expected expired entry to be gone, got %v", err)
	}
	if _, err := m.Take(ctx, "short"); !IsNotFound(err) {
		t.Fatalf("expected expired entry not takeable, got %v", err)
	}
}

func TestRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, rc := newMiniRedis(t)
	_ = rc.Set(ctx, "short", "v", time.Second)
	mr.FastForward(2 * time.Second)
	if _, err := rc.Get(ctx, "short"); !IsNotFound(err) {
		t.Fatalf("expected expired entry to be gone, got %v", err)
	}
}

func TestFailover_PrimaryHealthy(t *testing.T) {
	ctx := context.Background()
	mr, rc := newMiniRedis(t)
	mem := NewMemory("test")
	f := NewFailover(rc, mem, 0)

	if err := f.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if got, _ := mr.Get("test:k"); got != "v" {
		t.Fatalf("value should live in redis, got %q", got)
	}
	if _, err := mem.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatal("fallback must stay empty while primary is healthy")
	}
}

func TestFailover_OutageKeepsServing(t *testing.T) {
	ctx := context.Background()
	mr, rc := newMiniRedis(t)
	f := NewFailover(rc, NewMemory("test"), 0)

	_ = f.Set(ctx, "before", "1", time.Minute)

	mr.Close() // redis cae

	if err := f.Set(ctx, "during", "2", time.Minute); err != nil {
		t.Fatalf("Set during outage must not fail: %v", err)
	}
	if v, err := f.Get(ctx, "during"); err != nil || v != "2" {
		t.Fatalf("Get during outage = %q, %v", v, err)
	}
	if v, err := f.Take(ctx, "during"); err != nil || v != "2" {
		t.Fatalf("Take during outage = %q, %v", v, err)
	}
	if _, err := f.Take(ctx, "during"); !IsNotFound(err) {
		t.Fatalf("second Take must miss, got %v", err)
	}
	if err := f.Delete(ctx, "before"); err != nil {
		t.Fatalf("Delete during outage must not fail: %v", err)
	}
	if _, err := f.Get(ctx, "before"); !IsNotFound(err) {
		t.Fatalf("value written to the unreachable primary is not visible, got %v", err)
	}
}

func TestFailover_FallbackReadableAfterRecovery(t *testing.T) {
	ctx := context.Background()
	mr, rc := newMiniRedis(t)
	f := NewFailover(rc, NewMemory("test"), 0)

	mr.Close()
	_ = f.Set(ctx, "written-in-outage", "v", time.Minute)

	if err := mr.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	if v, err := f.Get(ctx, "written-in-outage"); err != nil || v != "v" {
		t.Fatalf("Get after recovery = %q, %v", v, err)
	}
}

func TestFailover_DeleteDuringOutageSurvivesRecovery(t *testing.T) {
	ctx := context.Background()
	mr, rc := newMiniRedis(t)
	mem := NewMemory("test")
	f := NewFailover(rc, mem, time.Hour)

	if err := f.Set(ctx, "revoked", "v", time.Hour); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if err := f.Set(ctx, "code", "c", time.Hour); err != nil {
		t.Fatalf("Set err: %v", err)
	}

	mr.SetError("ERR redis unavailable")
	if err := f.Delete(ctx, "revoked"); err != nil {
		t.Fatalf("Delete during outage must not fail: %v", err)
	}
	if err := f.Delete(ctx, "code"); err != nil {
		t.Fatalf("Delete during outage must not fail: %v", err)
	}
	mr.SetError("")

	if _, err := f.Get(ctx, "revoked"); !IsNotFound(err) {
		t.Fatalf("deleted key came back after recovery: %v", err)
	}
	if _, err := f.Take(ctx, "code"); !IsNotFound(err) {
		t.Fatalf("deleted code came back after recovery: %v", err)
	}
	// el borrado pendiente se aplicó al primario y el tombstone se limpió
	if mr.Exists("test:revoked") || mr.Exists("test:code") {
		t.Fatal("pending delete was not replayed on the primary")
	}
	if _, err := mem.Get(ctx, tombstonePrefix+"revoked"); !IsNotFound(err) {
		t.Fatalf("tombstone should be cleared once the primary accepts the delete, got %v", err)
	}

	// un Set posterior vuelve a hacer visible la key
	if err := f.Set(ctx, "revoked", "v2", time.Hour); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if v, err := f.Get(ctx, "revoked"); err != nil || v != "v2" {
		t.Fatalf("Get after re-Set = %q, %v", v, err)
	}
}

func TestFailover_TombstoneKeptWhilePrimaryRefusesDelete(t *testing.T) {
	ctx := context.Background()
	_, rc := newMiniRedis(t)
	stuck := &refusingDelete{Client: rc}
	mem := NewMemory("test")
	f := NewFailover(stuck, mem, time.Hour)

	if err := f.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if err := f.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.Get(ctx, "k"); !IsNotFound(err) {
			t.Fatalf("Get #%d must miss while the delete is pending, got %v", i, err)
		}
	}
	if _, err := mem.Get(ctx, tombstonePrefix+"k"); err != nil {
		t.Fatalf("tombstone must survive until the primary accepts the delete: %v", err)
	}
}

type refusingDelete struct {
	Client
}

func (r *refusingDelete) Delete(context.Context, string) error {
	return errors.New("READONLY You can't write against a read only replica")
}

func TestNew_Drivers(t *testing.T) {
	if _, ok := New(Config{Driver: "memory"}).(*memoryClient); !ok {
		t.Fatal("memory driver should build a memoryClient")
	}
	fo, ok := New(Config{Driver: "redis", Addr: "127.0.0.1:1"}).(*Failover)
	if !ok {
		t.Fatal("redis driver should build a Failover")
	}
	if rdb, ok := fo.Redis(); !ok || rdb.Options().Addr != "127.0.0.1:1" {
		t.Fatal("Failover over redis must expose the go-redis client")
	}
	if fo.tombstoneTTL != DefaultTombstoneTTL {
		t.Fatalf("tombstone ttl = %v", fo.tombstoneTTL)
	}
	if _, ok := NewFailover(NewMemory(""), NewMemory(""), 0).Redis(); ok {
		t.Fatal("memory primary has no redis client")
	}
}
