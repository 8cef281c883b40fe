// Package oauth contains controllers for OAuth2/OIDC endpoints.
package oauth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/minioidc/internal/http/errors"
	"github.com/dropDatabas3/minioidc/internal/http/helpers"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// AuthorizeController handles the OAuth2 authorization endpoint.
type AuthorizeController struct {
	service svc.AuthorizeService
}

// NewAuthorizeController creates the controller.
func NewAuthorizeController(s svc.AuthorizeService) *AuthorizeController {
	return &AuthorizeController{service: s}
}

// Authorize handles GET /authorize.
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Authorize"))

	q := r.URL.Query()
	useExternal, _ := strconv.ParseBool(strings.TrimSpace(q.Get("use_external")))
	req := dto.AuthorizeRequest{
		ResponseType: strings.TrimSpace(q.Get("response_type")),
		ClientID:     strings.TrimSpace(q.Get("client_id")),
		RedirectURI:  strings.TrimSpace(q.Get("redirect_uri")),
		Scope:        strings.TrimSpace(q.Get("scope")),
		State:        q.Get("state"),
		Username:     strings.TrimSpace(q.Get("username")),
		Password:     q.Get("password"),
		UseExternal:  useExternal,
		Provider:     strings.TrimSpace(q.Get("provider")),
	}

	log.Debug("authorize request",
		logger.ClientID(req.ClientID),
		logger.String("response_type", req.ResponseType),
		logger.Bool("use_external", req.UseExternal))

	result, err := c.service.Authorize(ctx, req)
	if err != nil {
		// Errors before redirect validation → JSON error
		switch {
		case errors.Is(err, svc.ErrUnsupportedResponseType):
			httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeUnsupportedResponseType, "response_type must be code"))
		case errors.Is(err, svc.ErrUnknownClient):
			httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeUnauthorizedClient, "unknown client"))
		case errors.Is(err, svc.ErrRedirectNotAllowed):
			httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeUnauthorizedClient, "redirect_uri not allowed"))
		default:
			log.Error("authorize failed", logger.Err(err))
			httperrors.WriteOAuthError(w, err)
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	switch result.Type {
	case dto.AuthResultSuccess:
		http.Redirect(w, r, helpers.AppendQuery(result.RedirectURI, "code", result.Code, "state", result.State), http.StatusFound)
	case dto.AuthResultExternal:
		http.Redirect(w, r, result.ExternalURL, http.StatusFound)
	case dto.AuthResultError:
		loc := helpers.AppendQuery(result.RedirectURI,
			"error", result.ErrorCode,
			"error_description", result.ErrorDescription,
			"state", result.State)
		http.Redirect(w, r, loc, http.StatusFound)
	}
}
