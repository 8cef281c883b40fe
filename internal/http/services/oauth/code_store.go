package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/minioidc/internal/cache"
	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	"github.com/dropDatabas3/minioidc/internal/metrics"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
)

const cacheKeyPrefixCode = "code:"

// ErrCodeNotFound: code inexistente, vencido o ya consumido.
var ErrCodeNotFound = errors.New("authorization code not found")

// CodeStore guarda PendingGrants indexados por code, de un solo uso.
type CodeStore interface {
	Put(ctx context.Context, code string, g dto.PendingGrant, ttl time.Duration) error
	// TakeOnce lee y borra en un paso: de N llamadas concurrentes con el
	// mismo code, a lo sumo una obtiene el grant.
	TakeOnce(ctx context.Context, code string) (*dto.PendingGrant, error)
}

type cacheCodeStore struct {
	cache cache.Client
	now   func() time.Time
}

// NewCodeStore crea un CodeStore sobre cache.Client. Las keys son
// "code:" + sha256(code), nunca el code en claro.
func NewCodeStore(c cache.Client) CodeStore {
	return &cacheCodeStore{cache: c, now: time.Now}
}

func codeKey(code string) string {
	return cacheKeyPrefixCode + tokens.SHA256Base64URL(code)
}

func (s *cacheCodeStore) Put(ctx context.Context, code string, g dto.PendingGrant, ttl time.Duration) error {
	b, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal pending grant: %w", err)
	}
	return s.cache.Set(ctx, codeKey(code), string(b), ttl)
}

func (s *cacheCodeStore) TakeOnce(ctx context.Context, code string) (*dto.PendingGrant, error) {
	if code == "" {
		return nil, ErrCodeNotFound
	}
	raw, err := s.cache.Take(ctx, codeKey(code))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	var g dto.PendingGrant
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode pending grant: %w", err)
	}
	if !g.ExpiresAt.IsZero() && s.now().After(g.ExpiresAt) {
		return nil, ErrCodeNotFound
	}
	return &g, nil
}

// CodeIssuer genera el code, lo persiste y cuenta la emisión. Es el punto
// donde convergen el login local y el federado.
type CodeIssuer struct {
	store CodeStore
	ttl   time.Duration
	now   func() time.Time
}

// NewCodeIssuer crea un CodeIssuer. ttl <= 0 usa 300s.
func NewCodeIssuer(store CodeStore, ttl time.Duration) *CodeIssuer {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &CodeIssuer{store: store, ttl: ttl, now: time.Now}
}

// Issue crea un code de 256 bits para (client, redirect, subject, scope).
// method etiqueta la métrica: "password" o "federation".
func (i *CodeIssuer) Issue(ctx context.Context, clientID, redirectURI, subject, scope, method string) (string, error) {
	code, err := tokens.GenerateOpaqueToken(tokens.DefaultBytes)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	g := dto.PendingGrant{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Subject:     subject,
		Scope:       scope,
		ExpiresAt:   i.now().Add(i.ttl),
	}
	if err := i.store.Put(ctx, code, g, i.ttl); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	metrics.CodesIssued.WithLabelValues(method).Inc()
	return code, nil
}
