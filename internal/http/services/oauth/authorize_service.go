// Package oauth contains services for OAuth2/OIDC endpoints.
package oauth

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/minioidc/internal/audit"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
	socialdto "github.com/dropDatabas3/minioidc/internal/http/dto/social"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
	"github.com/dropDatabas3/minioidc/internal/validation"
)

const defaultScope = "openid profile email"

// Errors for authorize flow. Se devuelven solo cuando no hay un redirect_uri
// validado, así que el controller responde JSON en lugar de redirigir.
var (
	ErrUnsupportedResponseType = errors.New("response_type must be code")
	ErrUnknownClient           = errors.New("unknown client")
	ErrRedirectNotAllowed      = errors.New("redirect_uri not allowed")
)

// AuthorizeService handles the OAuth2 authorization flow.
type AuthorizeService interface {
	Authorize(ctx context.Context, req dto.AuthorizeRequest) (dto.AuthResult, error)
}

// FederationStarter arranca un login externo. Lo implementa el service de
// federación; acá solo se necesita la URL del IdP.
type FederationStarter interface {
	BeginExternalLogin(ctx context.Context, req socialdto.ExternalLoginRequest) (string, error)
}

// AuthorizeDeps contains dependencies for AuthorizeService.
type AuthorizeDeps struct {
	Clients      repository.ClientRepository
	Users        repository.UserRepository
	Codes        *CodeIssuer
	Federation   FederationStarter // nil => use_external responde invalid_request
	DefaultScope string
}

type authorizeService struct {
	clients      repository.ClientRepository
	users        repository.UserRepository
	codes        *CodeIssuer
	federation   FederationStarter
	defaultScope string
}

// NewAuthorizeService creates a new AuthorizeService.
func NewAuthorizeService(d AuthorizeDeps) AuthorizeService {
	scope := strings.TrimSpace(d.DefaultScope)
	if scope == "" {
		scope = defaultScope
	}
	return &authorizeService{
		clients:      d.Clients,
		users:        d.Users,
		codes:        d.Codes,
		federation:   d.Federation,
		defaultScope: scope,
	}
}

// Authorize valida en orden: response_type, client, redirect_uri. Los errores
// se reportan en ese orden, pero viajan como redirect al RP siempre que client
// y redirect_uri sean válidos.
func (s *authorizeService) Authorize(ctx context.Context, req dto.AuthorizeRequest) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.Authorize"))

	client, clientErr := s.resolveClient(ctx, req)

	if req.ResponseType != "code" {
		if clientErr != nil {
			return dto.AuthResult{}, ErrUnsupportedResponseType
		}
		log.Debug("response_type rejected", logger.ClientID(req.ClientID), logger.String("response_type", req.ResponseType))
		return errorResult(req, "unsupported_response_type", "response_type must be code"), nil
	}
	if clientErr != nil {
		log.Debug("client or redirect validation failed", logger.Err(clientErr),
			logger.ClientID(req.ClientID), logger.String("redirect_uri", req.RedirectURI))
		return dto.AuthResult{}, clientErr
	}

	scope, err := validation.NormalizeScope(req.Scope)
	if err != nil {
		log.Debug("scope rejected", logger.Err(err))
		return errorResult(req, "invalid_scope", "malformed scope"), nil
	}
	if scope == "" {
		scope = s.defaultScope
	}

	if req.UseExternal {
		return s.external(ctx, req, scope), nil
	}

	if req.Username == "" || req.Password == "" {
		return errorResult(req, "login_required", "credentials required"), nil
	}
	if !s.users.Verify(ctx, req.Username, req.Password) {
		log.Info("local login rejected", logger.ClientID(req.ClientID))
		audit.Log(ctx, audit.EventLoginFailed, logger.ClientID(req.ClientID), logger.String("username", req.Username))
		return errorResult(req, "access_denied", "invalid credentials"), nil
	}

	code, err := s.codes.Issue(ctx, client.ID, req.RedirectURI, req.Username, scope, "password")
	if err != nil {
		log.Error("code issuance failed", logger.Err(err))
		return errorResult(req, "server_error", ""), nil
	}

	log.Info("authorization code issued", logger.ClientID(client.ID), logger.Subject(req.Username))
	audit.Log(ctx, audit.EventLoginSucceeded, logger.ClientID(client.ID), logger.Subject(req.Username), logger.String("method", "password"))
	return dto.AuthResult{
		Type:        dto.AuthResultSuccess,
		Code:        code,
		RedirectURI: req.RedirectURI,
		State:       req.State,
	}, nil
}

func (s *authorizeService) external(ctx context.Context, req dto.AuthorizeRequest, scope string) dto.AuthResult {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.external"))

	if s.federation == nil || strings.TrimSpace(req.Provider) == "" {
		return errorResult(req, "invalid_request", "provider required")
	}
	u, err := s.federation.BeginExternalLogin(ctx, socialdto.ExternalLoginRequest{
		Provider:    req.Provider,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       scope,
		State:       req.State,
	})
	if err != nil {
		log.Warn("external login not started", logger.Provider(req.Provider), logger.Err(err))
		if errors.Is(err, ErrUnknownProvider) {
			return errorResult(req, "invalid_request", "unknown provider")
		}
		return errorResult(req, "server_error", "provider unavailable")
	}
	return dto.AuthResult{
		Type:        dto.AuthResultExternal,
		ExternalURL: u,
		RedirectURI: req.RedirectURI,
		State:       req.State,
	}
}

func (s *authorizeService) resolveClient(ctx context.Context, req dto.AuthorizeRequest) (*repository.Client, error) {
	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return nil, ErrUnknownClient
	}
	if !client.AllowsRedirect(req.RedirectURI) {
		return nil, ErrRedirectNotAllowed
	}
	return client, nil
}

// ErrUnknownProvider lo devuelve un FederationStarter para providers no configurados.
var ErrUnknownProvider = errors.New("unknown provider")

func errorResult(req dto.AuthorizeRequest, code, desc string) dto.AuthResult {
	return dto.AuthResult{
		Type:             dto.AuthResultError,
		ErrorCode:        code,
		ErrorDescription: desc,
		RedirectURI:      req.RedirectURI,
		State:            req.State,
	}
}
