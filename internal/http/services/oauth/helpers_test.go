package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/minioidc/internal/cache"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
	"github.com/dropDatabas3/minioidc/internal/store/memory"
)

const (
	testIssuer   = "http://localhost:8080"
	testClient   = "demo-client"
	testSecret   = "demo-secret"
	testRedirect = "https://app/cb"
)

type fixture struct {
	cache   cache.Client
	jwt     *jwtx.Issuer
	clients repository.ClientRepository
	users   repository.UserRepository
	svcs    Services
}

func newFixture(t *testing.T, fed FederationStarter) *fixture {
	t.Helper()
	ks, err := jwtx.NewRSAKeySet()
	require.NoError(t, err)

	f := &fixture{
		cache: cache.NewMemory("test"),
		jwt:   jwtx.NewIssuer(testIssuer, ks),
		clients: memory.NewClientRepo(
			repository.Client{ID: testClient, Secret: testSecret, RedirectURIs: []string{testRedirect}},
			repository.Client{ID: "other-client", Secret: "other-secret", RedirectURIs: []string{"https://other/cb"}},
		),
		users: memory.NewUserRepo(map[string]string{"alice": "alice123", "bob": "bob123"}),
	}
	f.svcs = NewServices(Deps{
		Cache:      f.cache,
		Issuer:     f.jwt,
		Clients:    f.clients,
		Users:      f.users,
		Federation: fed,
		CodeTTL:    5 * time.Minute,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	return f
}
