package oidc

import (
	oauthsvc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
)

// Deps contiene las dependencias de los services OIDC.
type Deps struct {
	Issuer      *jwtx.Issuer
	Tokens      oauthsvc.TokenStore
	EmailDomain string
}

// Services agrupa los services OIDC.
type Services struct {
	Discovery DiscoveryService
	JWKS      JWKSService
	UserInfo  UserInfoService
}

// NewServices crea el agregador de services OIDC.
func NewServices(d Deps) Services {
	return Services{
		Discovery: NewDiscoveryService(d.Issuer.Iss()),
		JWKS:      NewJWKSService(d.Issuer.Keys()),
		UserInfo:  NewUserInfoService(UserInfoDeps{Tokens: d.Tokens, EmailDomain: d.EmailDomain}),
	}
}
