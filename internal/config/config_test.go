package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefault_DemoRegistry(t *testing.T) {
	c := Default()
	if len(c.Clients) != 1 || c.Clients[0].ID != "demo-client" || c.Clients[0].Secret != "demo-secret" {
		t.Fatalf("unexpected default clients: %+v", c.Clients)
	}
	if len(c.Clients[0].RedirectURIs) != 3 {
		t.Fatalf("expected 3 default redirect uris, got %v", c.Clients[0].RedirectURIs)
	}
	if len(c.Users) != 2 || c.Users[0].Username != "alice" || c.Users[1].Username != "bob" {
		t.Fatalf("unexpected default users: %+v", c.Users)
	}
	if c.Tokens.CodeTTL != 300*time.Second || c.Tokens.AccessTTL != time.Hour || c.Tokens.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttl defaults: %+v", c.Tokens)
	}
	if c.Authorize.DefaultScope != "openid profile email" {
		t.Fatalf("default scope = %q", c.Authorize.DefaultScope)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9000"
  issuer: "https://id.example.org/"
cache:
  kind: redis
tokens:
  access_ttl: 10m
clients:
  - id: app
    secret: s3cr3t
    redirect_uris: ["https://app/cb"]
providers:
  corp:
    type: oidc
    client_id: minioidc
    issuer_url: https://corp.example.org
`)
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("ACCESS_TTL", "15m")

	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Server.Addr != ":9000" || c.Server.Issuer != "https://id.example.org" {
		t.Fatalf("server = %+v", c.Server)
	}
	if c.Cache.Kind != "redis" || c.Cache.Redis.Addr != "redis:6380" {
		t.Fatalf("cache = %+v", c.Cache)
	}
	if c.Tokens.AccessTTL != 15*time.Minute {
		t.Fatalf("env override lost: %v", c.Tokens.AccessTTL)
	}
	if c.Tokens.CodeTTL != DefaultCodeTTL {
		t.Fatalf("code ttl default lost: %v", c.Tokens.CodeTTL)
	}
	if len(c.Clients) != 1 || c.Clients[0].ID != "app" {
		t.Fatalf("clients = %+v", c.Clients)
	}
	corp := c.Providers["corp"]
	if corp.RedirectURL != "https://id.example.org/external/corp/callback" {
		t.Fatalf("provider redirect = %q", corp.RedirectURL)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Clients[0].ID != "demo-client" {
		t.Fatalf("expected demo client")
	}
}

func TestValidate_Errors(t *testing.T) {
	p := writeYAML(t, `
server:
  issuer: "not a url"
bindings:
  driver: postgres
clients:
  - id: a
    redirect_uris: []
providers:
  weird:
    type: saml
rate:
  trusted_proxies: ["10.0.0.0/33"]
`)
	_, err := Load(p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"server.issuer", "bindings.dsn", "redirect_uri", "unknown type", "client_id", "rate.trusted_proxies"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q does not mention %q", msg, want)
		}
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	if err != nil {
		t.Fatalf("example config must load: %v", err)
	}
	if got := c.Providers["corp"].RedirectURL; got != "http://localhost:8080/external/corp/callback" {
		t.Fatalf("corp redirect = %q", got)
	}
	if c.Providers["github"].Type != "github" {
		t.Fatalf("github type = %q", c.Providers["github"].Type)
	}
}

func TestParsePrefixes(t *testing.T) {
	got, err := ParsePrefixes([]string{"10.1.2.3/8", "192.0.2.7", "::1"})
	if err != nil {
		t.Fatalf("ParsePrefixes err: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.0.2.7/32", "::1/128"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("prefix[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := ParsePrefixes([]string{"proxy.local"}); err == nil {
		t.Fatal("hostnames must be rejected")
	}
}

func TestLoad_TrustedProxiesFromEnv(t *testing.T) {
	t.Setenv("RATE_TRUSTED_PROXIES", " 10.0.0.0/8 , 172.16.0.1 ")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(c.Rate.TrustedProxies) != 2 || c.Rate.TrustedProxies[1] != "172.16.0.1" {
		t.Fatalf("trusted proxies = %v", c.Rate.TrustedProxies)
	}
}
