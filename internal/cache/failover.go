package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/minioidc/internal/metrics"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// DefaultTombstoneTTL cubre la vida de un refresh token.
const DefaultTombstoneTTL = 7 * 24 * time.Hour

const tombstonePrefix = "tomb:"

// Failover decora un primario (redis) con un fallback en memoria.
//
//   - Escrituras: primario; si falla, fallback.
//   - Lecturas: primario; si falla o no encuentra, fallback. Así lo escrito
//     durante una caída sigue legible cuando el primario vuelve.
//   - Delete: ambos. Si el primario falla queda un tombstone en el fallback
//     y un hit posterior del primario sobre esa key se descarta (y se
//     reintenta el borrado).
//
// Los errores del primario se loguean y cuentan, nunca se propagan.
type Failover struct {
	primary      Client
	fallback     Client
	tombstoneTTL time.Duration
}

// NewFailover crea el decorador. tombstoneTTL <= 0 usa DefaultTombstoneTTL;
// debe ser al menos el TTL más largo que se escribe en el store.
func NewFailover(primary, fallback Client, tombstoneTTL time.Duration) *Failover {
	if tombstoneTTL <= 0 {
		tombstoneTTL = DefaultTombstoneTTL
	}
	return &Failover{primary: primary, fallback: fallback, tombstoneTTL: tombstoneTTL}
}

// Redis devuelve el cliente go-redis del primario, si lo es.
func (f *Failover) Redis() (*redis.Client, bool) {
	rc, ok := f.primary.(*redisClient)
	if !ok {
		return nil, false
	}
	return rc.Raw(), true
}

func (f *Failover) degraded(ctx context.Context, op string, err error) {
	metrics.StoreFallbacks.WithLabelValues(op).Inc()
	logger.From(ctx).Warn("primary store unavailable, using in-process fallback",
		logger.Component("cache.failover"),
		logger.Op(op),
		logger.Err(err),
	)
}

// buried reporta si key fue borrada mientras el primario estaba caído. Si el
// primario ya acepta el borrado pendiente, el tombstone se limpia.
func (f *Failover) buried(ctx context.Context, key string) bool {
	if _, err := f.fallback.Get(ctx, tombstonePrefix+key); err != nil {
		return false
	}
	if err := f.primary.Delete(ctx, key); err == nil {
		_ = f.fallback.Delete(ctx, tombstonePrefix+key)
	}
	return true
}

func (f *Failover) Get(ctx context.Context, key string) (string, error) {
	v, err := f.primary.Get(ctx, key)
	if err == nil {
		if f.buried(ctx, key) {
			return "", ErrNotFound
		}
		return v, nil
	}
	if !IsNotFound(err) {
		f.degraded(ctx, "get", err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *Failover) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := f.primary.Set(ctx, key, value, ttl); err != nil {
		f.degraded(ctx, "set", err)
		if err := f.fallback.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	// un valor nuevo reemplaza un borrado pendiente
	return f.fallback.Delete(ctx, tombstonePrefix+key)
}

func (f *Failover) Take(ctx context.Context, key string) (string, error) {
	v, err := f.primary.Take(ctx, key)
	if err == nil {
		if f.buried(ctx, key) {
			return "", ErrNotFound
		}
		return v, nil
	}
	if !IsNotFound(err) {
		f.degraded(ctx, "take", err)
	}
	return f.fallback.Take(ctx, key)
}

func (f *Failover) Delete(ctx context.Context, key string) error {
	if err := f.primary.Delete(ctx, key); err != nil {
		f.degraded(ctx, "delete", err)
		if err := f.fallback.Set(ctx, tombstonePrefix+key, "1", f.tombstoneTTL); err != nil {
			return err
		}
	}
	return f.fallback.Delete(ctx, key)
}

// Ping reporta el estado del primario (para /healthz); el servicio sigue
// funcionando aunque falle.
func (f *Failover) Ping(ctx context.Context) error {
	return f.primary.Ping(ctx)
}

func (f *Failover) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}
