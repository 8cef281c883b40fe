package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/minioidc/internal/config"
	"github.com/dropDatabas3/minioidc/internal/providers/providertest"
)

type harness struct {
	srv    *httptest.Server
	app    *App
	idp    *providertest.IdP
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	idp := providertest.NewIdP(t, "minioidc")

	cfg := config.Default()
	cfg.Clients = []config.ClientConfig{{ID: "demo-client", Secret: "demo-secret", RedirectURIs: []string{"https://app/cb"}}}
	cfg.Metrics.Enabled = true

	h := &harness{idp: idp}
	// el issuer tiene que ser la URL del server, que se conoce recién al arrancar
	var handler http.Handler
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(h.srv.Close)

	cfg.Server.Issuer = h.srv.URL
	cfg.Providers = map[string]config.ProviderConfig{
		"corp": {
			Type:        "oidc",
			ClientID:    "minioidc",
			IssuerURL:   idp.URL(),
			RedirectURL: h.srv.URL + "/external/corp/callback",
		},
	}

	app, err := Build(context.Background(), cfg, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	h.app = app
	handler = app.Handler

	h.client = &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	return h
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) postForm(t *testing.T, path string, form url.Values, basicAuth bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicAuth {
		req.SetBasicAuth("demo-client", "demo-secret")
	}
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

// login hace /authorize con alice y devuelve el code del redirect.
func (h *harness) login(t *testing.T) string {
	t.Helper()
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {"demo-client"},
		"redirect_uri":  {"https://app/cb"},
		"state":         {"xyz"},
		"username":      {"alice"},
		"password":      {"alice123"},
	}
	resp := h.get(t, "/authorize?"+q.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://app/cb", loc.Scheme+"://"+loc.Host+loc.Path)
	assert.Equal(t, "xyz", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func (h *harness) exchange(t *testing.T, code string) *http.Response {
	t.Helper()
	return h.postForm(t, "/token", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {"https://app/cb"},
	}, true)
}

func TestScenario_PasswordLoginFlow(t *testing.T) {
	h := newHarness(t)

	code := h.login(t)
	resp := h.exchange(t, code)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	tok := decode(t, resp)
	assert.Equal(t, "Bearer", tok["token_type"])
	assert.EqualValues(t, 3600, tok["expires_in"])
	access := tok["access_token"].(string)
	refresh := tok["refresh_token"].(string)
	idToken := tok["id_token"].(string)

	// reuse del code
	resp = h.exchange(t, code)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", decode(t, resp)["error"])

	// userinfo
	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	ui, err := h.client.Do(req)
	require.NoError(t, err)
	defer ui.Body.Close()
	require.Equal(t, http.StatusOK, ui.StatusCode)
	info := decode(t, ui)
	assert.Equal(t, "alice", info["sub"])
	assert.Equal(t, "alice@example.com", info["email"])
	assert.Equal(t, "alice", info["preferred_username"])

	// kid del id_token == kid publicado
	parsed, _, err := jwtv5.NewParser().ParseUnverified(idToken, jwtv5.MapClaims{})
	require.NoError(t, err)
	jwks := decode(t, h.get(t, "/jwks.json"))
	keys := jwks["keys"].([]any)
	require.Len(t, keys, 1)
	assert.Equal(t, parsed.Header["kid"], keys[0].(map[string]any)["kid"])
	assert.Equal(t, "RS256", parsed.Header["alg"])

	claims, err := h.app.Issuer.Parse(idToken, "demo-client")
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, h.srv.URL, claims["iss"])

	// refresh: access nuevo, mismo refresh
	resp = h.postForm(t, "/token", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refresh}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok2 := decode(t, resp)
	assert.NotEqual(t, access, tok2["access_token"])
	assert.Equal(t, refresh, tok2["refresh_token"])

	// el access viejo ya no sirve
	req, _ = http.NewRequest(http.MethodGet, h.srv.URL+"/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	old, err := h.client.Do(req)
	require.NoError(t, err)
	defer old.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, old.StatusCode)
	assert.Contains(t, old.Header.Get("WWW-Authenticate"), "invalid_token")

	// revoke del refresh: también cae el access actual
	resp = h.postForm(t, "/revoke", url.Values{"token": {refresh}}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	req, _ = http.NewRequest(http.MethodGet, h.srv.URL+"/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+tok2["access_token"].(string))
	gone, err := h.client.Do(req)
	require.NoError(t, err)
	defer gone.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, gone.StatusCode)

	resp = h.postForm(t, "/token", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refresh}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", decode(t, resp)["error"])
}

func TestScenario_TokenErrors(t *testing.T) {
	h := newHarness(t)
	code := h.login(t)

	// client secret incorrecto
	req, _ := http.NewRequest(http.MethodPost, h.srv.URL+"/token", strings.NewReader(url.Values{
		"grant_type": {"authorization_code"}, "code": {code}, "redirect_uri": {"https://app/cb"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("demo-client", "nope")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_client", decode(t, resp)["error"])

	resp = h.postForm(t, "/token", url.Values{"grant_type": {"password"}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported_grant_type", decode(t, resp)["error"])

	resp = h.postForm(t, "/revoke", url.Values{"token": {"unknown"}}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScenario_AuthorizeErrors(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name  string
		query url.Values
	}{
		{"bad response_type and unknown client", url.Values{"response_type": {"token"}, "client_id": {"ghost"}, "redirect_uri": {"https://app/cb"}}},
		{"unknown client", url.Values{"response_type": {"code"}, "client_id": {"ghost"}, "redirect_uri": {"https://app/cb"}}},
		{"redirect not registered", url.Values{"response_type": {"code"}, "client_id": {"demo-client"}, "redirect_uri": {"https://evil/cb"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.get(t, "/authorize?"+tc.query.Encode())
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("Location"))
			assert.NotEmpty(t, decode(t, resp)["error"])
		})
	}

	// credenciales malas => redirect con error
	q := url.Values{
		"response_type": {"code"}, "client_id": {"demo-client"}, "redirect_uri": {"https://app/cb"},
		"state": {"s1"}, "username": {"alice"}, "password": {"wrong"},
	}
	resp := h.get(t, "/authorize?"+q.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Equal(t, "s1", loc.Query().Get("state"))
	assert.Empty(t, loc.Query().Get("code"))

	// response_type inválido con client y redirect válidos => redirect
	q = url.Values{
		"response_type": {"token"}, "client_id": {"demo-client"}, "redirect_uri": {"https://app/cb"},
		"state": {"xyz"}, "username": {"alice"}, "password": {"alice123"},
	}
	resp = h.get(t, "/authorize?"+q.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err = url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://app/cb", loc.Scheme+"://"+loc.Host+loc.Path)
	assert.Equal(t, "unsupported_response_type", loc.Query().Get("error"))
	assert.Equal(t, "xyz", loc.Query().Get("state"))
	assert.Empty(t, loc.Query().Get("code"))
}

func TestScenario_Federation(t *testing.T) {
	h := newHarness(t)

	q := url.Values{
		"response_type": {"code"}, "client_id": {"demo-client"}, "redirect_uri": {"https://app/cb"},
		"state": {"rp"}, "use_external": {"true"}, "provider": {"corp"},
	}
	resp := h.get(t, "/authorize?"+q.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	up, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, h.idp.URL()+"/authorize", up.Scheme+"://"+up.Host+up.Path)

	extCode := h.idp.IssueCode(providertest.Identity{Subject: "ext-1", Name: "Dana Scully", Email: "dana@corp.test", Nonce: up.Query().Get("nonce")})
	cb := url.Values{"code": {extCode}, "state": {up.Query().Get("state")}}
	resp = h.get(t, "/external/corp/callback?"+cb.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	back, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "rp", back.Query().Get("state"))

	tokResp := h.exchange(t, back.Query().Get("code"))
	require.Equal(t, http.StatusOK, tokResp.StatusCode)
	tok := decode(t, tokResp)

	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+tok["access_token"].(string))
	ui, err := h.client.Do(req)
	require.NoError(t, err)
	defer ui.Body.Close()
	assert.Equal(t, "dana.scully", decode(t, ui)["sub"])

	// state falsificado => JSON 400, sin redirect
	resp = h.get(t, "/external/corp/callback?code=x&state=forged")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
}

func TestScenario_Metadata(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/.well-known/openid-configuration")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	meta := decode(t, resp)
	assert.Equal(t, h.srv.URL, meta["issuer"])
	assert.Equal(t, h.srv.URL+"/jwks.json", meta["jwks_uri"])
	assert.Equal(t, h.srv.URL+"/revoke", meta["revocation_endpoint"])

	resp = h.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, h.app.Issuer.ActiveKID(), resp.Header.Get("X-JWKS-KID"))
	assert.Equal(t, "ready", decode(t, resp)["status"])

	req, _ := http.NewRequest(http.MethodHead, h.srv.URL+"/jwks.json", nil)
	head, err := h.client.Do(req)
	require.NoError(t, err)
	defer head.Body.Close()
	assert.Equal(t, http.StatusOK, head.StatusCode)

	resp = h.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "minioidc_http_requests_total")

	resp = h.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
