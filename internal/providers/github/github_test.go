package github

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/dropDatabas3/minioidc/internal/providers"
)

func TestFactory_Defaults(t *testing.T) {
	p, err := Factory(context.Background(), providers.ProviderConfig{Name: ProviderName, ClientID: "cid"})
	if err != nil {
		t.Fatalf("Factory err: %v", err)
	}
	u, _ := url.Parse(p.AuthorizeURL("s", "n"))
	if u.Host != "github.com" || !strings.Contains(u.Query().Get("scope"), "read:user") {
		t.Fatalf("unexpected authorize url: %s", u)
	}
	if p.Type() != providers.ProviderTypeOAuth2 {
		t.Fatalf("type = %s", p.Type())
	}
}
