// Package oidc contiene los services para endpoints OIDC/Discovery.
package oidc

import (
	"context"
	"strings"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oidc"
)

// DiscoveryService define las operaciones para OIDC Discovery.
type DiscoveryService interface {
	GetDiscovery(ctx context.Context) dto.OIDCMetadata
}

type discoveryService struct {
	baseIssuer string
}

// NewDiscoveryService crea un nuevo servicio de OIDC Discovery.
func NewDiscoveryService(baseIssuer string) DiscoveryService {
	return &discoveryService{baseIssuer: strings.TrimRight(baseIssuer, "/")}
}

// Metadata OIDC
var (
	responseTypesSupported            = []string{"code"}
	grantTypesSupported               = []string{"authorization_code", "refresh_token"}
	subjectTypesSupported             = []string{"public"}
	idTokenSigningAlgValuesSupported  = []string{"RS256"}
	tokenEndpointAuthMethodsSupported = []string{"client_secret_basic", "client_secret_post"}
	scopesSupported                   = []string{"openid", "profile", "email"}
	claimsSupported                   = []string{
		"iss", "sub", "aud", "exp", "iat", "jti", "scope",
		"name", "email", "preferred_username",
	}
)

func (s *discoveryService) GetDiscovery(ctx context.Context) dto.OIDCMetadata {
	return dto.OIDCMetadata{
		Issuer:                s.baseIssuer,
		AuthorizationEndpoint: s.baseIssuer + "/authorize",
		TokenEndpoint:         s.baseIssuer + "/token",
		UserinfoEndpoint:      s.baseIssuer + "/userinfo",
		JWKSURI:               s.baseIssuer + "/jwks.json",
		RevocationEndpoint:    s.baseIssuer + "/revoke",

		ResponseTypesSupported:            responseTypesSupported,
		GrantTypesSupported:               grantTypesSupported,
		SubjectTypesSupported:             subjectTypesSupported,
		IDTokenSigningAlgValuesSupported:  idTokenSigningAlgValuesSupported,
		TokenEndpointAuthMethodsSupported: tokenEndpointAuthMethodsSupported,
		ScopesSupported:                   scopesSupported,
		ClaimsSupported:                   claimsSupported,
	}
}
