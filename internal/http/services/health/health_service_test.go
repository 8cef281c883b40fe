package health

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/dropDatabas3/minioidc/internal/cache"
)

func TestCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(cache.Config{Driver: "redis", Addr: mr.Addr()})
	s := NewHealthService(Deps{Cache: c, CacheKind: "redis", ActiveKeyID: "kid-1"})

	resp := s.Check(context.Background())
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Components["cache_redis"])
	assert.Equal(t, "kid-1", resp.ActiveKeyID)

	mr.Close()
	resp = s.Check(context.Background())
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "down", resp.Components["cache_redis"])
}
