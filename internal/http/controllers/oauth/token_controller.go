package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/minioidc/internal/http/errors"
	"github.com/dropDatabas3/minioidc/internal/http/helpers"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// TokenController handles the OAuth2 token endpoint.
type TokenController struct {
	service svc.TokenService
}

// NewTokenController creates the controller.
func NewTokenController(s svc.TokenService) *TokenController {
	return &TokenController{service: s}
}

// Token handles POST /token
// Implements: Authorization Code and Refresh Token grants.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	// Limit body size (64KB for OAuth forms)
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "Invalid form data"))
		return
	}

	grantType := strings.TrimSpace(r.PostForm.Get("grant_type"))
	log = log.With(logger.GrantType(grantType))
	clientID, secret, _ := helpers.ClientCredentials(r)

	var resp *dto.TokenResponse
	var err error

	switch grantType {
	case "authorization_code":
		resp, err = c.service.ExchangeAuthorizationCode(ctx, dto.AuthCodeRequest{
			Code:         strings.TrimSpace(r.PostForm.Get("code")),
			RedirectURI:  strings.TrimSpace(r.PostForm.Get("redirect_uri")),
			ClientID:     clientID,
			ClientSecret: secret,
		})

	case "refresh_token":
		resp, err = c.service.ExchangeRefreshToken(ctx, dto.RefreshTokenRequest{
			RefreshToken: strings.TrimSpace(r.PostForm.Get("refresh_token")),
			ClientID:     clientID,
			ClientSecret: secret,
		})

	default:
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeUnsupportedGrantType, "Grant type not supported"))
		return
	}

	if err != nil {
		c.handleServiceError(ctx, w, err)
		return
	}

	helpers.WriteNoStoreJSON(w, http.StatusOK, resp)
}

func (c *TokenController) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrTokenInvalidRequest):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidRequest, "Missing or invalid parameters"))
	case errors.Is(err, svc.ErrTokenInvalidClient):
		w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusUnauthorized, httperrors.CodeInvalidClient, "Client authentication failed"))
	case errors.Is(err, svc.ErrTokenInvalidGrant):
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusBadRequest, httperrors.CodeInvalidGrant, "Invalid or expired grant"))
	default:
		logger.From(ctx).Error("token endpoint error", logger.Err(err))
		httperrors.WriteOAuthError(w, err)
	}
}
