package oauth

import (
	"time"

	"github.com/dropDatabas3/minioidc/internal/cache"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
)

// Deps contiene las dependencias para crear los services OAuth.
type Deps struct {
	Cache        cache.Client
	Issuer       *jwtx.Issuer
	Clients      repository.ClientRepository
	Users        repository.UserRepository
	Federation   FederationStarter
	CodeStore    CodeStore   // opcional: se comparte con federación
	Codes        *CodeIssuer // opcional: idem
	CodeTTL      time.Duration
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	DefaultScope string
}

// Services agrupa todos los services del dominio OAuth.
type Services struct {
	Authorize AuthorizeService
	Token     TokenService
	Revoke    RevokeService

	// Compartidos con federación y userinfo
	Codes      *CodeIssuer
	CodeStore  CodeStore
	TokenStore TokenStore
}

// NewServices crea el agregador de services OAuth.
func NewServices(d Deps) Services {
	codeStore := d.CodeStore
	if codeStore == nil {
		codeStore = NewCodeStore(d.Cache)
	}
	codes := d.Codes
	if codes == nil {
		codes = NewCodeIssuer(codeStore, d.CodeTTL)
	}
	tokenStore := NewTokenStore(d.Cache)
	issuer := NewTokenIssuer(d.Issuer, d.AccessTTL, d.RefreshTTL)

	return Services{
		Authorize: NewAuthorizeService(AuthorizeDeps{
			Clients:      d.Clients,
			Users:        d.Users,
			Codes:        codes,
			Federation:   d.Federation,
			DefaultScope: d.DefaultScope,
		}),
		Token: NewTokenService(TokenDeps{
			Clients: d.Clients,
			Codes:   codeStore,
			Tokens:  tokenStore,
			Issuer:  issuer,
		}),
		Revoke: NewRevokeService(RevokeDeps{
			Clients: d.Clients,
			Tokens:  tokenStore,
		}),
		Codes:      codes,
		CodeStore:  codeStore,
		TokenStore: tokenStore,
	}
}
