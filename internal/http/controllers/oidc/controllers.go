package oidc

import svc "github.com/dropDatabas3/minioidc/internal/http/services/oidc"

// Controllers agrupa los controllers OIDC.
type Controllers struct {
	Discovery *DiscoveryController
	JWKS      *JWKSController
	UserInfo  *UserInfoController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Discovery: NewDiscoveryController(s.Discovery),
		JWKS:      NewJWKSController(s.JWKS),
		UserInfo:  NewUserInfoController(s.UserInfo),
	}
}
