package social

import (
	"time"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	oauthsvc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
	"github.com/dropDatabas3/minioidc/internal/providers"
)

// Deps contiene las dependencias de los services de federación.
type Deps struct {
	Issuer    *jwtx.Issuer
	Providers *providers.Registry
	Clients   repository.ClientRepository
	Users     repository.UserRepository
	Bindings  repository.BindingRepository
	Codes     *oauthsvc.CodeIssuer
	StateTTL  time.Duration
}

// Services agrupa los services de federación.
type Services struct {
	Federation FederationService
	Bindings   BindingService
}

// NewServices crea el agregador.
func NewServices(d Deps) Services {
	bindings := NewBindingService(BindingDeps{Bindings: d.Bindings, Users: d.Users})
	return Services{
		Federation: NewFederationService(FederationDeps{
			Providers: d.Providers,
			Clients:   d.Clients,
			Codes:     d.Codes,
			Bindings:  bindings,
			State:     &IssuerAdapter{Issuer: d.Issuer, StateTTL: d.StateTTL},
		}),
		Bindings: bindings,
	}
}
