// Package providers define los IdPs externos de federación.
//
// Architecture:
// - Provider interface: operaciones comunes de todos los IdPs
// - Registry: crea instancias a demanda desde la configuración y las cachea
// - Implementaciones: un sub-paquete por tipo (oidc, generic, github)
//
// Design Patterns:
// - Strategy: cada provider es una estrategia de login
// - Factory: el Registry crea instancias por tipo
// - Adapter: normaliza respuestas OAuth/OIDC a un UserProfile común
package providers

import (
	"context"
	"errors"
)

// ProviderType indicates the authentication protocol.
type ProviderType string

const (
	ProviderTypeOIDC   ProviderType = "oidc"
	ProviderTypeOAuth2 ProviderType = "oauth2"
)

var (
	ErrNotConfigured = errors.New("provider not configured")
	ErrNonceMismatch = errors.New("nonce mismatch")
	ErrNoSubject     = errors.New("provider returned no subject")
)

// Provider defines the interface all external IdPs implement.
type Provider interface {
	Name() string
	Type() ProviderType

	// AuthorizeURL arma la URL del IdP a la que se redirige al usuario.
	AuthorizeURL(state, nonce string) string

	// Exchange canjea el code del IdP. Los providers OIDC verifican el ID token
	// y el nonce acá.
	Exchange(ctx context.Context, code, nonce string) (*TokenSet, error)

	// UserInfo normaliza la identidad del usuario autenticado.
	UserInfo(ctx context.Context, ts *TokenSet) (*UserProfile, error)
}

// ProviderConfig contains the configuration for a provider instance.
type ProviderConfig struct {
	Name         string
	Type         string // oidc | oauth2 | github
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// Provider-specific extra config (issuer_url, auth_url, token_url,
	// userinfo_url, subject_field, name_field, email_field).
	Extra map[string]string
}

// TokenSet contains tokens received from the provider.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string         // OIDC only
	Claims       map[string]any // claims verificadas del ID token (OIDC only)
	TokenType    string
}

// UserProfile is a normalized user profile from any provider.
type UserProfile struct {
	ProviderID string // ID estable del usuario en el IdP (sub)
	Email      string
	Name       string

	Raw map[string]any
}
