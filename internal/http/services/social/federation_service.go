// Package social implementa la federación con IdPs externos: arranque del
// login, callback, y binding de la identidad externa a un subject local.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/minioidc/internal/audit"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	socialdto "github.com/dropDatabas3/minioidc/internal/http/dto/social"
	"github.com/dropDatabas3/minioidc/internal/http/helpers"
	oauthsvc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
	"github.com/dropDatabas3/minioidc/internal/providers"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
)

// FederationService maneja /external/{provider}/login y /callback.
type FederationService interface {
	BeginExternalLogin(ctx context.Context, req socialdto.ExternalLoginRequest) (string, error)
	HandleExternalCallback(ctx context.Context, req socialdto.CallbackRequest) (*socialdto.CallbackResult, error)
}

// Errores previos a confiar en el state: el controller responde JSON 400.
var (
	ErrUnknownProvider     = oauthsvc.ErrUnknownProvider
	ErrInvalidClient       = errors.New("invalid client")
	ErrRedirectNotAllowed  = errors.New("redirect_uri not allowed")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// FederationDeps contains dependencies for FederationService.
type FederationDeps struct {
	Providers *providers.Registry
	Clients   repository.ClientRepository
	Codes     *oauthsvc.CodeIssuer
	Bindings  BindingService
	State     StateSigner
}

type federationService struct {
	deps FederationDeps
}

var _ oauthsvc.FederationStarter = (*federationService)(nil)

// NewFederationService creates a new FederationService.
func NewFederationService(d FederationDeps) FederationService {
	return &federationService{deps: d}
}

func (s *federationService) BeginExternalLogin(ctx context.Context, req socialdto.ExternalLoginRequest) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.federation"),
		logger.Op("BeginExternalLogin"),
		logger.Provider(req.Provider),
		logger.ClientID(req.ClientID),
	)

	if !s.deps.Providers.Has(req.Provider) {
		return "", ErrUnknownProvider
	}
	client, err := s.deps.Clients.Get(ctx, req.ClientID)
	if err != nil {
		return "", ErrInvalidClient
	}
	if !client.AllowsRedirect(req.RedirectURI) {
		return "", ErrRedirectNotAllowed
	}

	p, err := s.deps.Providers.Get(ctx, req.Provider)
	if err != nil {
		log.Error("provider init failed", logger.Err(err))
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	nonce, err := tokens.GenerateOpaqueToken(16)
	if err != nil {
		return "", err
	}
	state, err := s.deps.State.SignState(StateClaims{
		Provider:    req.Provider,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       strings.TrimSpace(req.Scope),
		State:       req.State,
		Nonce:       nonce,
	})
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}

	log.Debug("redirecting to external provider")
	audit.Log(ctx, audit.EventFederationStart, logger.Provider(req.Provider), logger.ClientID(req.ClientID))
	return p.AuthorizeURL(state, nonce), nil
}

// HandleExternalCallback: un state inválido devuelve error (JSON 400). Una vez
// verificado el state, todo error viaja como redirect al RP local.
func (s *federationService) HandleExternalCallback(ctx context.Context, req socialdto.CallbackRequest) (*socialdto.CallbackResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.federation"),
		logger.Op("HandleExternalCallback"),
		logger.Provider(req.Provider),
	)

	st, err := s.deps.State.ParseState(req.State)
	if err != nil {
		log.Warn("state rejected", logger.Err(err))
		return nil, err
	}
	if st.Provider != req.Provider {
		return nil, ErrStateProvider
	}
	log = log.With(logger.ClientID(st.ClientID))

	fail := func(code, desc string) *socialdto.CallbackResult {
		return &socialdto.CallbackResult{
			RedirectURL: helpers.AppendQuery(st.RedirectURI, "error", code, "error_description", desc, "state", st.State),
		}
	}

	if req.Error != "" {
		log.Info("external provider denied login", logger.String("upstream_error", req.Error))
		return fail("access_denied", "external login cancelled"), nil
	}
	if req.Code == "" {
		return fail("access_denied", "missing external code"), nil
	}

	p, err := s.deps.Providers.Get(ctx, req.Provider)
	if err != nil {
		log.Error("provider init failed", logger.Err(err))
		return fail("server_error", "provider unavailable"), nil
	}
	ts, err := p.Exchange(ctx, req.Code, st.Nonce)
	if err != nil {
		log.Warn("external code exchange failed", logger.Err(err))
		return fail("access_denied", "external login failed"), nil
	}
	profile, err := p.UserInfo(ctx, ts)
	if err != nil {
		log.Warn("external profile fetch failed", logger.Err(err))
		if errors.Is(err, providers.ErrNoSubject) {
			return fail("access_denied", "external identity without subject"), nil
		}
		return fail("server_error", "external profile unavailable"), nil
	}

	subject, err := s.deps.Bindings.Resolve(ctx, req.Provider, profile)
	if err != nil {
		log.Error("binding resolution failed", logger.Err(err))
		return fail("server_error", ""), nil
	}

	scope := st.Scope
	if scope == "" {
		scope = "openid profile email"
	}
	code, err := s.deps.Codes.Issue(ctx, st.ClientID, st.RedirectURI, subject, scope, "federation")
	if err != nil {
		log.Error("code issuance failed", logger.Err(err))
		return fail("server_error", ""), nil
	}

	log.Info("federated login completed", logger.Subject(subject))
	audit.Log(ctx, audit.EventLoginSucceeded, logger.ClientID(st.ClientID), logger.Subject(subject), logger.String("method", "federation"), logger.Provider(req.Provider))
	return &socialdto.CallbackResult{
		RedirectURL: helpers.AppendQuery(st.RedirectURI, "code", code, "state", st.State),
	}, nil
}
