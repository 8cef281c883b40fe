package oauth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/minioidc/internal/audit"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// RevokeService defines operations for token revocation.
type RevokeService interface {
	Revoke(ctx context.Context, req dto.RevokeRequest) error
}

// RevokeDeps contains dependencies for the revoke service.
type RevokeDeps struct {
	Clients repository.ClientRepository
	Tokens  TokenStore
}

type revokeService struct {
	deps RevokeDeps
}

// NewRevokeService creates a new RevokeService.
func NewRevokeService(deps RevokeDeps) RevokeService {
	return &revokeService{deps: deps}
}

// Service errors
var (
	ErrRevokeTokenEmpty    = errors.New("token is empty")
	ErrRevokeInvalidClient = errors.New("invalid client")
)

// Revoke es idempotente: un token desconocido, vencido o de otro cliente no
// es un error (RFC 7009 §2.2). Revocar un refresh token también elimina su
// access token vigente.
func (s *revokeService) Revoke(ctx context.Context, req dto.RevokeRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.revoke"),
		logger.Op("Revoke"),
		logger.ClientID(req.ClientID),
	)

	if !s.deps.Clients.Authenticate(ctx, req.ClientID, req.ClientSecret) {
		return ErrRevokeInvalidClient
	}
	if req.Token == "" {
		return ErrRevokeTokenEmpty
	}

	lookups := []func(context.Context, string) (*dto.IssuedGrant, error){
		s.deps.Tokens.GetByRefreshToken,
		s.deps.Tokens.GetByAccessToken,
	}
	if req.TokenTypeHint == "access_token" {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	for _, lookup := range lookups {
		g, err := lookup(ctx, req.Token)
		if err != nil {
			if !errors.Is(err, ErrTokenNotFound) {
				log.Debug("revoke lookup failed", logger.Err(err))
			}
			continue
		}
		if g.ClientID != req.ClientID {
			log.Debug("token belongs to another client, ignoring")
			return nil
		}
		if g.RefreshToken == req.Token {
			if err := s.deps.Tokens.Delete(ctx, g.AccessToken); err != nil {
				return err
			}
		}
		if err := s.deps.Tokens.Delete(ctx, req.Token); err != nil {
			return err
		}
		log.Info("token revoked", logger.Subject(g.Subject))
		audit.Log(ctx, audit.EventTokenRevoked, logger.ClientID(g.ClientID), logger.Subject(g.Subject))
		return nil
	}

	log.Debug("token not found, nothing to revoke")
	return nil
}
