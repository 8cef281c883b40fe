// Package health contiene el service de health check.
package health

import (
	"context"
	"time"

	"github.com/dropDatabas3/minioidc/internal/cache"
	dto "github.com/dropDatabas3/minioidc/internal/http/dto/health"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// HealthService reporta el estado del servidor.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias del service.
type Deps struct {
	Cache       cache.Client
	CacheKind   string
	ActiveKeyID string
}

type healthService struct {
	deps Deps
}

// NewHealthService crea el service.
func NewHealthService(d Deps) HealthService {
	return &healthService{deps: d}
}

// Check nunca devuelve "unavailable": con redis caído el store sigue en
// memoria, así que el estado es "degraded".
func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	resp := dto.HealthResponse{
		Status:      "ready",
		ActiveKeyID: s.deps.ActiveKeyID,
		Components:  map[string]string{"keys": "ok"},
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	name := "cache_" + s.deps.CacheKind
	if err := s.deps.Cache.Ping(pingCtx); err != nil {
		logger.From(ctx).Warn("cache ping failed", logger.Component("health"), logger.Err(err))
		resp.Components[name] = "down"
		resp.Status = "degraded"
	} else {
		resp.Components[name] = "ok"
	}
	return resp
}
