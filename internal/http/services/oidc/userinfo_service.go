package oidc

import (
	"context"
	"errors"
	"strings"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oidc"
	oauthsvc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// UserInfoService resuelve los claims del dueño de un access token.
type UserInfoService interface {
	GetUserInfo(ctx context.Context, accessToken string) (*dto.UserInfoResponse, error)
}

// Errores
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

const defaultEmailDomain = "example.com"

// UserInfoDeps contiene las dependencias del service.
type UserInfoDeps struct {
	Tokens      oauthsvc.TokenStore
	EmailDomain string
}

type userInfoService struct {
	tokens      oauthsvc.TokenStore
	emailDomain string
}

// NewUserInfoService crea el service. EmailDomain vacío usa example.com.
func NewUserInfoService(d UserInfoDeps) UserInfoService {
	domain := strings.TrimPrefix(strings.TrimSpace(d.EmailDomain), "@")
	if domain == "" {
		domain = defaultEmailDomain
	}
	return &userInfoService{tokens: d.Tokens, emailDomain: domain}
}

func (s *userInfoService) GetUserInfo(ctx context.Context, accessToken string) (*dto.UserInfoResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oidc.userinfo"),
		logger.Op("GetUserInfo"),
	)

	if accessToken == "" {
		return nil, ErrMissingToken
	}
	g, err := s.tokens.GetByAccessToken(ctx, accessToken)
	if err != nil {
		if !errors.Is(err, oauthsvc.ErrTokenNotFound) {
			log.Warn("token lookup failed", logger.Err(err))
		}
		return nil, ErrInvalidToken
	}

	return &dto.UserInfoResponse{
		Sub:               g.Subject,
		Name:              g.Subject,
		Email:             g.Subject + "@" + s.emailDomain,
		PreferredUsername: g.Subject,
		Scope:             g.Scope,
	}, nil
}
