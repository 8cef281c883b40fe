package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/minioidc/internal/cache"
	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
)

const (
	cacheKeyPrefixAccess  = "at:"
	cacheKeyPrefixRefresh = "rt:"
)

var (
	// ErrTokenNotFound: token inexistente, vencido o revocado.
	ErrTokenNotFound = errors.New("token not found")

	// ErrStaleGrant: otra rotación del mismo refresh token ganó la carrera.
	ErrStaleGrant = errors.New("grant superseded by a concurrent rotation")
)

// TokenStore indexa IssuedGrants por access token y por refresh token.
type TokenStore interface {
	Put(ctx context.Context, g *dto.IssuedGrant) error
	GetByAccessToken(ctx context.Context, token string) (*dto.IssuedGrant, error)
	GetByRefreshToken(ctx context.Context, token string) (*dto.IssuedGrant, error)
	// Delete borra el token de ambos índices; no falla si no existe.
	Delete(ctx context.Context, token string) error
	// Rotate reemplaza el grant old (mismo refresh token) por next. Falla con
	// ErrStaleGrant si el índice de refresh ya no apunta al access token de old,
	// y con ErrTokenNotFound si el refresh token fue revocado.
	Rotate(ctx context.Context, old, next *dto.IssuedGrant) error
}

type cacheTokenStore struct {
	cache cache.Client
	now   func() time.Time
}

// NewTokenStore crea un TokenStore sobre cache.Client. Con el cliente de
// failover, cada operación prueba redis y cae a memoria si falla.
func NewTokenStore(c cache.Client) TokenStore {
	return &cacheTokenStore{cache: c, now: time.Now}
}

func accessKey(t string) string  { return cacheKeyPrefixAccess + tokens.SHA256Base64URL(t) }
func refreshKey(t string) string { return cacheKeyPrefixRefresh + tokens.SHA256Base64URL(t) }

func (s *cacheTokenStore) Put(ctx context.Context, g *dto.IssuedGrant) error {
	if err := s.setIndex(ctx, accessKey(g.AccessToken), g, g.AccessExpiresAt); err != nil {
		return err
	}
	return s.setIndex(ctx, refreshKey(g.RefreshToken), g, g.RefreshExpiresAt)
}

func (s *cacheTokenStore) GetByAccessToken(ctx context.Context, token string) (*dto.IssuedGrant, error) {
	g, err := s.get(ctx, accessKey(token))
	if err != nil {
		return nil, err
	}
	if g.AccessToken != token || !s.now().Before(g.AccessExpiresAt) {
		return nil, ErrTokenNotFound
	}
	return g, nil
}

func (s *cacheTokenStore) GetByRefreshToken(ctx context.Context, token string) (*dto.IssuedGrant, error) {
	g, err := s.get(ctx, refreshKey(token))
	if err != nil {
		return nil, err
	}
	if g.RefreshToken != token || !s.now().Before(g.RefreshExpiresAt) {
		return nil, ErrTokenNotFound
	}
	return g, nil
}

func (s *cacheTokenStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return errors.Join(
		s.cache.Delete(ctx, accessKey(token)),
		s.cache.Delete(ctx, refreshKey(token)),
	)
}

// Rotate compara y escribe sin atomicidad entre réplicas: dos refresh
// simultáneos en réplicas distintas pueden pasar ambos la comparación. Dentro
// del proceso el token service los serializa por refresh token.
func (s *cacheTokenStore) Rotate(ctx context.Context, old, next *dto.IssuedGrant) error {
	cur, err := s.get(ctx, refreshKey(next.RefreshToken))
	if err != nil {
		return err
	}
	if old != nil && cur.AccessToken != old.AccessToken {
		return ErrStaleGrant
	}
	if err := s.setIndex(ctx, accessKey(next.AccessToken), next, next.AccessExpiresAt); err != nil {
		return err
	}
	// el índice de refresh conserva su vencimiento original
	if err := s.setIndex(ctx, refreshKey(next.RefreshToken), next, next.RefreshExpiresAt); err != nil {
		return err
	}
	if old != nil && old.AccessToken != "" && old.AccessToken != next.AccessToken {
		return s.cache.Delete(ctx, accessKey(old.AccessToken))
	}
	return nil
}

func (s *cacheTokenStore) setIndex(ctx context.Context, key string, g *dto.IssuedGrant, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal issued grant: %w", err)
	}
	return s.cache.Set(ctx, key, string(b), ttl)
}

func (s *cacheTokenStore) get(ctx context.Context, key string) (*dto.IssuedGrant, error) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	var g dto.IssuedGrant
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode issued grant: %w", err)
	}
	return &g, nil
}
