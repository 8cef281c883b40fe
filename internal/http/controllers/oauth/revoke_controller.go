package oauth

import (
	"errors"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/minioidc/internal/http/errors"
	"github.com/dropDatabas3/minioidc/internal/http/helpers"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

const maxRevokeBodySize = 32 * 1024 // 32KB

// RevokeController handles POST /revoke.
type RevokeController struct {
	service svc.RevokeService
}

// NewRevokeController creates a new revoke controller.
func NewRevokeController(service svc.RevokeService) *RevokeController {
	return &RevokeController{service: service}
}

// Revoke handles the token revocation request.
// Always returns 200 OK for unknown tokens per RFC 7009.
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RevokeController.Revoke"))

	r.Body = http.MaxBytesReader(w, r.Body, maxRevokeBodySize)
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "Invalid form data"))
		return
	}
	clientID, secret, _ := helpers.ClientCredentials(r)

	err := c.service.Revoke(ctx, dto.RevokeRequest{
		Token:         strings.TrimSpace(r.PostForm.Get("token")),
		TokenTypeHint: strings.TrimSpace(r.PostForm.Get("token_type_hint")),
		ClientID:      clientID,
		ClientSecret:  secret,
	})
	switch {
	case err == nil:
	case errors.Is(err, svc.ErrRevokeInvalidClient):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusUnauthorized, httperrors.CodeInvalidClient, "Client authentication failed"))
		return
	case errors.Is(err, svc.ErrRevokeTokenEmpty):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "token is required"))
		return
	default:
		// storage: no se filtra al cliente
		log.Warn("revoke error suppressed", logger.Err(err))
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
}
