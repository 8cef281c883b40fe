package oidc

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/dropDatabas3/minioidc/internal/providers"
	"github.com/dropDatabas3/minioidc/internal/providers/providertest"
)

func newProvider(t *testing.T, idp *providertest.IdP) providers.Provider {
	t.Helper()
	p, err := Factory(context.Background(), providers.ProviderConfig{
		Name:        "corp",
		ClientID:    idp.ClientID,
		RedirectURI: "http://localhost:8080/external/corp/callback",
		Extra:       map[string]string{"issuer_url": idp.URL()},
	})
	if err != nil {
		t.Fatalf("Factory err: %v", err)
	}
	return p
}

func TestProvider_FullExchange(t *testing.T) {
	idp := providertest.NewIdP(t, "minioidc")
	p := newProvider(t, idp)

	u, _ := url.Parse(p.AuthorizeURL("st", "n0nce"))
	if u.Query().Get("nonce") != "n0nce" || u.Path != "/authorize" {
		t.Fatalf("unexpected authorize url: %s", u)
	}

	ctx := context.Background()
	code := idp.IssueCode(providertest.Identity{Subject: "ext-42", Name: "Carol Doe", Email: "carol@corp", Nonce: "n0nce"})
	ts, err := p.Exchange(ctx, code, "n0nce")
	if err != nil {
		t.Fatalf("Exchange err: %v", err)
	}
	prof, err := p.UserInfo(ctx, ts)
	if err != nil {
		t.Fatalf("UserInfo err: %v", err)
	}
	if prof.ProviderID != "ext-42" || prof.Email != "carol@corp" {
		t.Fatalf("unexpected profile: %+v", prof)
	}
	// el ID token no trae nombre: sale del userinfo upstream
	if prof.Name != "Carol Doe" {
		t.Fatalf("expected name from upstream userinfo, got %q", prof.Name)
	}
}

func TestProvider_NonceMismatch(t *testing.T) {
	idp := providertest.NewIdP(t, "minioidc")
	p := newProvider(t, idp)

	code := idp.IssueCode(providertest.Identity{Subject: "ext-42", Nonce: "other"})
	if _, err := p.Exchange(context.Background(), code, "n0nce"); !errors.Is(err, providers.ErrNonceMismatch) {
		t.Fatalf("expected ErrNonceMismatch, got %v", err)
	}
}

func TestProvider_AudienceMismatch(t *testing.T) {
	idp := providertest.NewIdP(t, "someone-else")
	p, err := Factory(context.Background(), providers.ProviderConfig{
		Name: "corp", ClientID: "minioidc",
		Extra: map[string]string{"issuer_url": idp.URL()},
	})
	if err != nil {
		t.Fatalf("Factory err: %v", err)
	}
	code := idp.IssueCode(providertest.Identity{Subject: "ext-42", Nonce: "n"})
	if _, err := p.Exchange(context.Background(), code, "n"); err == nil {
		t.Fatal("expected audience verification failure")
	}
}

func TestFactory_DiscoveryFailure(t *testing.T) {
	_, err := Factory(context.Background(), providers.ProviderConfig{
		Name: "corp", ClientID: "x",
		Extra: map[string]string{"issuer_url": "http://127.0.0.1:1"},
	})
	if err == nil {
		t.Fatal("expected discovery error")
	}
}
