package social

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	socialdto "github.com/dropDatabas3/minioidc/internal/http/dto/social"
	httperrors "github.com/dropDatabas3/minioidc/internal/http/errors"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/social"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// CallbackController maneja GET /external/{provider}/callback
type CallbackController struct {
	service svc.FederationService
}

// NewCallbackController crea el controller.
func NewCallbackController(service svc.FederationService) *CallbackController {
	return &CallbackController{service: service}
}

// Callback verifica el state, completa el login externo y vuelve al RP local.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"), logger.Provider(provider))

	q := r.URL.Query()
	res, err := c.service.HandleExternalCallback(ctx, socialdto.CallbackRequest{
		Provider:         provider,
		Code:             strings.TrimSpace(q.Get("code")),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrStateExpired):
			httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "state expired"))
		case errors.Is(err, svc.ErrStateInvalid), errors.Is(err, svc.ErrStateProvider):
			httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid state"))
		default:
			log.Error("external callback failed", logger.Err(err))
			httperrors.WriteOAuthError(w, err)
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}
