package oauth

import svc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"

// Controllers agrupa todos los controllers del dominio OAuth.
type Controllers struct {
	Authorize *AuthorizeController
	Token     *TokenController
	Revoke    *RevokeController
}

// NewControllers creates the OAuth controllers aggregator.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Authorize: NewAuthorizeController(s.Authorize),
		Token:     NewTokenController(s.Token),
		Revoke:    NewRevokeController(s.Revoke),
	}
}
