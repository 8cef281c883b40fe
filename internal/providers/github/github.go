// Package github implements the GitHub OAuth2 provider as a preset of the
// generic OAuth2 provider.
package github

import (
	"context"

	"github.com/dropDatabas3/minioidc/internal/providers"
	"github.com/dropDatabas3/minioidc/internal/providers/generic"
)

const ProviderName = "github"

// Defaults de GitHub; cfg.Extra los puede pisar (GitHub Enterprise).
var defaults = generic.Options{
	AuthURL:      "https://github.com/login/oauth/authorize",
	TokenURL:     "https://github.com/login/oauth/access_token",
	UserinfoURL:  "https://api.github.com/user",
	SubjectField: "id",
	NameField:    "login",
	EmailField:   "email",
	Scopes:       []string{"read:user", "user:email"},
}

// Factory creates a new GitHub provider.
func Factory(ctx context.Context, cfg providers.ProviderConfig) (providers.Provider, error) {
	return generic.New(cfg, defaults)
}
