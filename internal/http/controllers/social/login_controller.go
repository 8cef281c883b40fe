// Package social contiene los controllers del flujo de federación.
package social

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	socialdto "github.com/dropDatabas3/minioidc/internal/http/dto/social"
	httperrors "github.com/dropDatabas3/minioidc/internal/http/errors"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/social"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// LoginController maneja GET /external/{provider}/login
type LoginController struct {
	service svc.FederationService
}

// NewLoginController crea el controller.
func NewLoginController(service svc.FederationService) *LoginController {
	return &LoginController{service: service}
}

// Login redirige al IdP externo.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"), logger.Provider(provider))

	q := r.URL.Query()
	u, err := c.service.BeginExternalLogin(ctx, socialdto.ExternalLoginRequest{
		Provider:    provider,
		ClientID:    strings.TrimSpace(q.Get("client_id")),
		RedirectURI: strings.TrimSpace(q.Get("redirect_uri")),
		Scope:       strings.TrimSpace(q.Get("scope")),
		State:       q.Get("state"),
	})
	if err != nil {
		writeBeginError(w, log, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u, http.StatusFound)
}

func writeBeginError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, svc.ErrUnknownProvider):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "unknown provider"))
	case errors.Is(err, svc.ErrInvalidClient):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeUnauthorizedClient, "unknown client"))
	case errors.Is(err, svc.ErrRedirectNotAllowed):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeUnauthorizedClient, "redirect_uri not allowed"))
	case errors.Is(err, svc.ErrProviderUnavailable):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadGateway, httperrors.CodeServerError, "provider unavailable"))
	default:
		log.Error("external login failed", logger.Err(err))
		httperrors.WriteOAuthError(w, err)
	}
}
