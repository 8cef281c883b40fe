package generic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dropDatabas3/minioidc/internal/providers"
)

func fakeOAuth2(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"up-at","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer up-at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":583231,"login":"octocat","email":"octo@example.org"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_ExchangeAndUserInfo(t *testing.T) {
	srv := fakeOAuth2(t)
	p, err := New(providers.ProviderConfig{
		Name:        "gh",
		ClientID:    "cid",
		RedirectURI: "http://localhost:8080/external/gh/callback",
		Extra: map[string]string{
			"auth_url":      srv.URL + "/authorize",
			"token_url":     srv.URL + "/token",
			"userinfo_url":  srv.URL + "/user",
			"subject_field": "id",
			"name_field":    "login",
		},
	}, Options{})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}

	u, err := url.Parse(p.AuthorizeURL("st4te", "ignored"))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("state") != "st4te" || q.Get("client_id") != "cid" || q.Get("response_type") != "code" {
		t.Fatalf("unexpected authorize url: %s", u)
	}

	ctx := context.Background()
	ts, err := p.Exchange(ctx, "good-code", "")
	if err != nil {
		t.Fatalf("Exchange err: %v", err)
	}
	prof, err := p.UserInfo(ctx, ts)
	if err != nil {
		t.Fatalf("UserInfo err: %v", err)
	}
	if prof.ProviderID != "583231" || prof.Name != "octocat" || prof.Email != "octo@example.org" {
		t.Fatalf("unexpected profile: %+v", prof)
	}

	if _, err := p.Exchange(ctx, "bad-code", ""); err == nil {
		t.Fatal("expected exchange error")
	}
	if _, err := p.UserInfo(ctx, &providers.TokenSet{AccessToken: "nope"}); err == nil {
		t.Fatal("expected userinfo error")
	}
}

func TestNew_RequiresEndpoints(t *testing.T) {
	if _, err := New(providers.ProviderConfig{Name: "x", ClientID: "cid"}, Options{}); err == nil {
		t.Fatal("expected error without endpoints")
	}
}
