package oidc

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/minioidc/internal/http/errors"
	"github.com/dropDatabas3/minioidc/internal/http/helpers"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/oidc"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// UserInfoController maneja el endpoint /userinfo
type UserInfoController struct {
	service svc.UserInfoService
}

// NewUserInfoController crea un nuevo controller de UserInfo.
func NewUserInfoController(service svc.UserInfoService) *UserInfoController {
	return &UserInfoController{service: service}
}

// GetUserInfo maneja GET /userinfo
func (c *UserInfoController) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UserInfoController.GetUserInfo"))

	resp, err := c.service.GetUserInfo(ctx, helpers.BearerToken(r))
	if err != nil {
		log.Debug("userinfo failed", logger.Err(err))
		desc := "token invalid or expired"
		if errors.Is(err, svc.ErrMissingToken) {
			desc = "missing bearer token"
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="userinfo", error="invalid_token", error_description="`+desc+`"`)
		httperrors.WriteOAuthError(w, httperrors.NewOAuth(http.StatusUnauthorized, httperrors.CodeInvalidToken, desc))
		return
	}

	w.Header().Add("Vary", "Authorization")
	helpers.WriteNoStoreJSON(w, http.StatusOK, resp)
}
