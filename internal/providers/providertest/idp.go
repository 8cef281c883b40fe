// Package providertest levanta un IdP upstream falso (OIDC + OAuth2 plano)
// sobre httptest para tests de federación.
package providertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
)

// Identity es lo que el IdP devuelve para un code.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Nonce   string
}

// IdP es un servidor de autorización upstream mínimo.
type IdP struct {
	Server   *httptest.Server
	ClientID string

	issuer *jwtx.Issuer
	mu     sync.Mutex
	codes  map[string]Identity
	access map[string]Identity
}

// NewIdP arranca el IdP; se cierra con t.Cleanup.
func NewIdP(t *testing.T, clientID string) *IdP {
	t.Helper()
	idp := &IdP{
		ClientID: clientID,
		codes:    map[string]Identity{},
		access:   map[string]Identity{},
	}
	mux := http.NewServeMux()
	idp.Server = httptest.NewServer(mux)
	t.Cleanup(idp.Server.Close)

	ks, err := jwtx.NewRSAKeySet()
	if err != nil {
		t.Fatalf("idp key: %v", err)
	}
	idp.issuer = jwtx.NewIssuer(idp.Server.URL, ks)

	mux.HandleFunc("/.well-known/openid-configuration", idp.discovery)
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(ks.JWKSJSON())
	})
	mux.HandleFunc("/token", idp.token)
	mux.HandleFunc("/userinfo", idp.userinfo)
	return idp
}

// URL del issuer.
func (i *IdP) URL() string { return i.Server.URL }

// IssueCode registra un code que /token canjeará por id.
func (i *IdP) IssueCode(id Identity) string {
	code, _ := tokens.GenerateOpaqueToken(16)
	i.mu.Lock()
	i.codes[code] = id
	i.mu.Unlock()
	return code
}

func (i *IdP) discovery(w http.ResponseWriter, r *http.Request) {
	base := i.Server.URL
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                base,
		"authorization_endpoint":                base + "/authorize",
		"token_endpoint":                        base + "/token",
		"userinfo_endpoint":                     base + "/userinfo",
		"jwks_uri":                              base + "/jwks",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (i *IdP) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	code := r.PostForm.Get("code")

	i.mu.Lock()
	id, ok := i.codes[code]
	delete(i.codes, code)
	i.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	at, _ := tokens.GenerateOpaqueToken(16)
	i.mu.Lock()
	i.access[at] = id
	i.mu.Unlock()

	now := time.Now()
	claims := jwtv5.MapClaims{
		"iss":   i.Server.URL,
		"sub":   id.Subject,
		"aud":   i.ClientID,
		"iat":   now.Unix(),
		"exp":   now.Add(5 * time.Minute).Unix(),
		"nonce": id.Nonce,
	}
	if id.Email != "" {
		claims["email"] = id.Email
	}
	idToken, _, _ := i.issuer.SignRaw(claims)

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": at,
		"token_type":   "Bearer",
		"expires_in":   300,
		"id_token":     idToken,
	})
}

func (i *IdP) userinfo(w http.ResponseWriter, r *http.Request) {
	ah := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(ah) <= len(prefix) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	i.mu.Lock()
	id, ok := i.access[ah[len(prefix):]]
	i.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sub":                id.Subject,
		"preferred_username": id.Name,
		"email":              id.Email,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
