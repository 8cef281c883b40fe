// Package generic implementa un IdP OAuth2 plano: code exchange con
// golang.org/x/oauth2 y la identidad desde un endpoint de userinfo JSON.
package generic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/minioidc/internal/providers"
)

const TypeName = "oauth2"

// Provider implements a generic OAuth2 IdP.
type Provider struct {
	name         string
	typ          providers.ProviderType
	conf         *oauth2.Config
	userinfoURL  string
	subjectField string
	nameField    string
	emailField   string
	httpClient   *http.Client
}

// Options permite a presets (github) fijar defaults antes de leer Extra.
type Options struct {
	AuthURL      string
	TokenURL     string
	UserinfoURL  string
	SubjectField string
	NameField    string
	EmailField   string
	Scopes       []string
}

// Factory crea el provider desde ProviderConfig.Extra.
func Factory(ctx context.Context, cfg providers.ProviderConfig) (providers.Provider, error) {
	return New(cfg, Options{})
}

// New combina defaults (opts) con cfg.Extra; Extra gana.
func New(cfg providers.ProviderConfig, opts Options) (*Provider, error) {
	pick := func(key, def string) string {
		if v := strings.TrimSpace(cfg.Extra[key]); v != "" {
			return v
		}
		return def
	}

	authURL := pick("auth_url", opts.AuthURL)
	tokenURL := pick("token_url", opts.TokenURL)
	userinfoURL := pick("userinfo_url", opts.UserinfoURL)
	if authURL == "" || tokenURL == "" || userinfoURL == "" {
		return nil, errors.New("oauth2 provider requires auth_url, token_url and userinfo_url")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("oauth2 provider requires client_id")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = opts.Scopes
	}

	return &Provider{
		name: cfg.Name,
		typ:  providers.ProviderTypeOAuth2,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userinfoURL:  userinfoURL,
		subjectField: pick("subject_field", nonEmpty(opts.SubjectField, "sub")),
		nameField:    pick("name_field", nonEmpty(opts.NameField, "name")),
		emailField:   pick("email_field", nonEmpty(opts.EmailField, "email")),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func nonEmpty(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func (p *Provider) Name() string                 { return p.name }
func (p *Provider) Type() providers.ProviderType { return p.typ }

// AuthorizeURL: OAuth2 plano no tiene nonce; el state firmado ya liga la vuelta.
func (p *Provider) AuthorizeURL(state, nonce string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *Provider) Exchange(ctx context.Context, code, nonce string) (*providers.TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: exchange: %w", p.name, err)
	}
	return &providers.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}, nil
}

func (p *Provider) UserInfo(ctx context.Context, ts *providers.TokenSet) (*providers.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ts.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: userinfo: status %d", p.name, resp.StatusCode)
	}

	var raw map[string]any
	dec := json.NewDecoder(io.LimitReader(resp.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: userinfo decode: %w", p.name, err)
	}

	prof := &providers.UserProfile{
		ProviderID: stringify(raw[p.subjectField]),
		Name:       stringify(raw[p.nameField]),
		Email:      stringify(raw[p.emailField]),
		Raw:        raw,
	}
	if prof.ProviderID == "" {
		return nil, providers.ErrNoSubject
	}
	return prof, nil
}

// stringify acepta string o número (GitHub devuelve "id" numérico).
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
