// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/oidc"
	socialctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/social"
	"github.com/dropDatabas3/minioidc/internal/http/errors"
	mw "github.com/dropDatabas3/minioidc/internal/http/middlewares"
	"github.com/dropDatabas3/minioidc/internal/rate"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	OAuth  *oauthctrl.Controllers
	OIDC   *oidcctrl.Controllers
	Social *socialctrl.Controllers
	Health *healthctrl.HealthController

	// RateLimiter es opcional; si es nil no se limita nada.
	RateLimiter rate.Limiter

	// TrustedProxies: peers cuyo X-Forwarded-For identifica al cliente.
	TrustedProxies []netip.Prefix

	// Metrics es opcional; si es nil no se expone /metrics.
	Metrics http.Handler
}

// New registra todas las rutas.
//
//	GET       /.well-known/openid-configuration
//	GET       /jwks.json                        (también HEAD)
//	GET       /authorize
//	POST      /token
//	POST      /revoke
//	GET|POST  /userinfo
//	GET       /external/{provider}/login
//	GET       /external/{provider}/callback
//	GET       /healthz
//	GET       /metrics                          (si está habilitado)
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(d.TrustedProxies),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	// Metadata pública
	r.Group(func(r chi.Router) {
		r.Use(mw.WithCacheControl("public, max-age=300"))
		r.Get("/.well-known/openid-configuration", d.OIDC.Discovery.Get)
		r.Get("/jwks.json", d.OIDC.JWKS.Get)
		r.Head("/jwks.json", d.OIDC.JWKS.Get)
	})

	// Endpoints de protocolo
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Use(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:        d.RateLimiter,
			TrustedProxies: d.TrustedProxies,
		}))

		r.Get("/authorize", d.OAuth.Authorize.Authorize)
		r.Post("/token", d.OAuth.Token.Token)
		r.Post("/revoke", d.OAuth.Revoke.Revoke)

		r.Get("/external/{provider}/login", d.Social.Login.Login)
		r.Get("/external/{provider}/callback", d.Social.Callback.Callback)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Get("/userinfo", d.OIDC.UserInfo.GetUserInfo)
		r.Post("/userinfo", d.OIDC.UserInfo.GetUserInfo)
	})

	r.Get("/healthz", d.Health.Healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	return r
}
