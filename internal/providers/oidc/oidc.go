// Package oidc implementa un IdP OpenID Connect upstream: discovery y
// verificación del ID token con coreos/go-oidc.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/minioidc/internal/providers"
)

const TypeName = "oidc"

// Provider implements an upstream OIDC IdP.
type Provider struct {
	name       string
	upstream   *gooidc.Provider
	verifier   *gooidc.IDTokenVerifier
	conf       *oauth2.Config
	httpClient *http.Client
}

// Factory hace discovery contra issuer_url. Se llama a demanda desde el Registry.
func Factory(ctx context.Context, cfg providers.ProviderConfig) (providers.Provider, error) {
	issuer := cfg.Extra["issuer_url"]
	if issuer == "" {
		return nil, errors.New("oidc provider requires issuer_url")
	}
	hc := &http.Client{Timeout: 10 * time.Second}

	// el ctx de discovery queda asociado al provider para fetch de JWKS; no
	// puede ser el del request
	dctx := gooidc.ClientContext(context.WithoutCancel(ctx), hc)
	up, err := gooidc.NewProvider(dctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", issuer, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		name:     cfg.Name,
		upstream: up,
		verifier: up.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint:     up.Endpoint(),
		},
		httpClient: hc,
	}, nil
}

func (p *Provider) Name() string                 { return p.name }
func (p *Provider) Type() providers.ProviderType { return providers.ProviderTypeOIDC }

func (p *Provider) AuthorizeURL(state, nonce string) string {
	return p.conf.AuthCodeURL(state, gooidc.Nonce(nonce))
}

func (p *Provider) Exchange(ctx context.Context, code, nonce string) (*providers.TokenSet, error) {
	ctx = gooidc.ClientContext(ctx, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: exchange: %w", p.name, err)
	}
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return nil, fmt.Errorf("%s: token response without id_token", p.name)
	}
	idt, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("%s: verify id_token: %w", p.name, err)
	}
	if idt.Nonce != nonce {
		return nil, providers.ErrNonceMismatch
	}
	claims := map[string]any{}
	if err := idt.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: id_token claims: %w", p.name, err)
	}
	return &providers.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawID,
		Claims:       claims,
		TokenType:    tok.TokenType,
	}, nil
}

// UserInfo usa las claims del ID token; si no traen nombre consulta el
// userinfo endpoint del IdP.
func (p *Provider) UserInfo(ctx context.Context, ts *providers.TokenSet) (*providers.UserProfile, error) {
	prof := &providers.UserProfile{
		ProviderID: claimString(ts.Claims, "sub"),
		Email:      claimString(ts.Claims, "email"),
		Name:       firstNonEmpty(claimString(ts.Claims, "preferred_username"), claimString(ts.Claims, "name")),
		Raw:        ts.Claims,
	}
	if prof.ProviderID == "" {
		return nil, providers.ErrNoSubject
	}

	if prof.Name == "" && p.upstream.UserInfoEndpoint() != "" && ts.AccessToken != "" {
		ctx = gooidc.ClientContext(ctx, p.httpClient)
		ui, err := p.upstream.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: ts.AccessToken, TokenType: "Bearer"}))
		if err == nil && ui.Subject == prof.ProviderID {
			var extra map[string]any
			_ = ui.Claims(&extra)
			prof.Name = firstNonEmpty(claimString(extra, "preferred_username"), claimString(extra, "name"))
			if prof.Email == "" {
				prof.Email = ui.Email
			}
		}
	}
	return prof, nil
}

func claimString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
