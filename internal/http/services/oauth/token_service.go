package oauth

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	"github.com/dropDatabas3/minioidc/internal/metrics"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// TokenService handles OAuth2 token endpoint logic.
type TokenService interface {
	// ExchangeAuthorizationCode handles grant_type=authorization_code
	ExchangeAuthorizationCode(ctx context.Context, req dto.AuthCodeRequest) (*dto.TokenResponse, error)

	// ExchangeRefreshToken handles grant_type=refresh_token (rota solo el access token)
	ExchangeRefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (*dto.TokenResponse, error)
}

// Token endpoint errors (OAuth2 standard).
var (
	ErrTokenInvalidRequest = errors.New("invalid_request")
	ErrTokenInvalidClient  = errors.New("invalid_client")
	ErrTokenInvalidGrant   = errors.New("invalid_grant")
)

// TokenDeps contains dependencies for TokenService.
type TokenDeps struct {
	Clients repository.ClientRepository
	Codes   CodeStore
	Tokens  TokenStore
	Issuer  *TokenIssuer
}

const refreshLockStripes = 64

type tokenService struct {
	deps TokenDeps

	// un refresh por token a la vez: la rotación lee el grant vigente y lo reemplaza
	refreshLocks [refreshLockStripes]sync.Mutex
}

func (s *tokenService) refreshLock(token string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return &s.refreshLocks[h.Sum32()%refreshLockStripes]
}

// NewTokenService creates a new TokenService.
func NewTokenService(d TokenDeps) TokenService {
	return &tokenService{deps: d}
}

func (s *tokenService) ExchangeAuthorizationCode(ctx context.Context, req dto.AuthCodeRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.token"),
		logger.Op("ExchangeAuthorizationCode"),
		logger.ClientID(req.ClientID),
	)

	if !s.deps.Clients.Authenticate(ctx, req.ClientID, req.ClientSecret) {
		return nil, ErrTokenInvalidClient
	}
	if req.Code == "" {
		return nil, ErrTokenInvalidRequest
	}

	pending, err := s.deps.Codes.TakeOnce(ctx, req.Code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			log.Debug("code not found or already used")
			return nil, ErrTokenInvalidGrant
		}
		return nil, err
	}
	// el code ya está consumido: un mismatch lo invalida igual
	if pending.ClientID != req.ClientID || pending.RedirectURI != req.RedirectURI {
		log.Warn("code presented with mismatched client or redirect_uri")
		return nil, ErrTokenInvalidGrant
	}

	grant, err := s.deps.Issuer.Issue(pending.ClientID, pending.Subject, pending.Scope)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Tokens.Put(ctx, grant); err != nil {
		return nil, err
	}

	metrics.TokensIssued.WithLabelValues("authorization_code").Inc()
	log.Info("tokens issued", logger.Subject(grant.Subject))
	return s.response(grant), nil
}

func (s *tokenService) ExchangeRefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.token"),
		logger.Op("ExchangeRefreshToken"),
		logger.ClientID(req.ClientID),
	)

	if !s.deps.Clients.Authenticate(ctx, req.ClientID, req.ClientSecret) {
		return nil, ErrTokenInvalidClient
	}
	if req.RefreshToken == "" {
		return nil, ErrTokenInvalidRequest
	}

	mu := s.refreshLock(req.RefreshToken)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.deps.Tokens.GetByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenInvalidGrant
		}
		return nil, err
	}
	if current.ClientID != req.ClientID {
		log.Warn("refresh token presented by another client")
		return nil, ErrTokenInvalidGrant
	}

	next, err := s.deps.Issuer.RotateAccess(current)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Tokens.Rotate(ctx, current, next); err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrStaleGrant) {
			log.Info("refresh lost to a concurrent revoke or rotation", logger.Err(err))
			return nil, ErrTokenInvalidGrant
		}
		return nil, err
	}

	metrics.TokensIssued.WithLabelValues("refresh_token").Inc()
	log.Info("access token rotated", logger.Subject(next.Subject))
	return s.response(next), nil
}

func (s *tokenService) response(g *dto.IssuedGrant) *dto.TokenResponse {
	expiresIn := int64(s.deps.Issuer.AccessTTL().Seconds())
	return &dto.TokenResponse{
		AccessToken:  g.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		RefreshToken: g.RefreshToken,
		IDToken:      g.IDToken,
		Scope:        g.Scope,
	}
}
