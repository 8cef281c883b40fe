// Package cache provee el key-value con TTL que respalda codes y tokens.
//
// Soporta:
//   - Memory (in-process, go-cache)
//   - Redis (compartido entre réplicas)
//   - Failover: redis primero, memoria del proceso si redis falla
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take lee y borra la key en un solo paso. Dos llamadas concurrentes
	// sobre la misma key: a lo sumo una obtiene el valor.
	Take(ctx context.Context, key string) (string, error)

	// Delete elimina una key. No falla si no existe.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver      string // "memory" | "redis"
	Addr        string
	Password    string
	DB          int
	Prefix      string // Prefijo para todas las keys
	DialTimeout time.Duration

	// TombstoneTTL: cuánto recuerda el Failover un borrado que redis no
	// aceptó. 0 => DefaultTombstoneTTL.
	TombstoneTTL time.Duration
}

// ErrNotFound indica key inexistente o expirada.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración. Con driver "redis"
// devuelve un Failover redis -> memoria.
func New(cfg Config) Client {
	switch cfg.Driver {
	case "redis":
		return NewFailover(NewRedis(cfg), NewMemory(cfg.Prefix), cfg.TombstoneTTL)
	default:
		return NewMemory(cfg.Prefix)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
