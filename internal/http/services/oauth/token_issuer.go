package oauth

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
)

// TokenIssuer arma el bundle access/refresh/ID token. Access y refresh son
// opacos; el ID token es un JWT RS256 firmado con la clave activa.
type TokenIssuer struct {
	issuer     *jwtx.Issuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer crea el issuer. TTLs <= 0 usan 3600s / 7 días.
func NewTokenIssuer(iss *jwtx.Issuer, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{issuer: iss, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// AccessTTL devuelve el tiempo de vida del access token.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// Issue emite un bundle nuevo.
func (t *TokenIssuer) Issue(clientID, subject, scope string) (*dto.IssuedGrant, error) {
	now := t.now()
	access, err := tokens.GenerateOpaqueToken(tokens.DefaultBytes)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := tokens.GenerateOpaqueToken(tokens.DefaultBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	g := &dto.IssuedGrant{
		ClientID:         clientID,
		Subject:          subject,
		Scope:            scope,
		AccessToken:      access,
		AccessExpiresAt:  now.Add(t.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(t.refreshTTL),
	}
	if g.IDToken, err = t.signIDToken(g, now); err != nil {
		return nil, err
	}
	return g, nil
}

// RotateAccess devuelve una copia de g con access token, vencimiento e ID token
// nuevos. El refresh token y su vencimiento no cambian.
func (t *TokenIssuer) RotateAccess(g *dto.IssuedGrant) (*dto.IssuedGrant, error) {
	now := t.now()
	access, err := tokens.GenerateOpaqueToken(tokens.DefaultBytes)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	next := *g
	next.AccessToken = access
	next.AccessExpiresAt = now.Add(t.accessTTL)
	if next.IDToken, err = t.signIDToken(&next, now); err != nil {
		return nil, err
	}
	return &next, nil
}

func (t *TokenIssuer) signIDToken(g *dto.IssuedGrant, now time.Time) (string, error) {
	claims := jwtv5.MapClaims{
		"iss":   t.issuer.Iss(),
		"sub":   g.Subject,
		"aud":   g.ClientID,
		"scope": g.Scope,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   g.AccessExpiresAt.Unix(),
	}
	signed, _, err := t.issuer.SignRaw(claims)
	if err != nil {
		return "", fmt.Errorf("sign id_token: %w", err)
	}
	return signed, nil
}
