package social

import svc "github.com/dropDatabas3/minioidc/internal/http/services/social"

// Controllers agrupa los controllers de federación.
type Controllers struct {
	Login    *LoginController
	Callback *CallbackController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Login:    NewLoginController(s.Federation),
		Callback: NewCallbackController(s.Federation),
	}
}
