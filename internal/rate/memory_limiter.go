package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// MemoryLimiter es un token bucket por key (golang.org/x/time/rate).
// Max requests por Window, con ráfaga igual a Max. Los buckets sin uso
// durante más de una ventana se descartan en el siguiente barrido.
type MemoryLimiter struct {
	Max    int
	Window time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim  *xrate.Limiter
	seen time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		Max:     max,
		Window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		every := l.Window / time.Duration(l.Max)
		b = &bucket{lim: xrate.NewLimiter(xrate.Every(every), l.Max)}
		l.buckets[key] = b
	}
	b.seen = now
	l.mu.Unlock()

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return Result{Allowed: false, RetryAfter: l.Window, WindowTTL: l.Window}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		// no consumimos el token si el request se rechaza
		r.CancelAt(now)
		return Result{Allowed: false, RetryAfter: delay, WindowTTL: l.Window}, nil
	}

	remaining := int64(b.lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:     true,
		Remaining:   remaining,
		WindowTTL:   l.Window,
		CurrentHits: int64(l.Max) - remaining,
	}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.Window {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.Window {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}
