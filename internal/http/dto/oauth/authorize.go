// Package oauth contains DTOs for OAuth2/OIDC endpoints.
package oauth

import "time"

// AuthorizeRequest contains the parsed query params for GET /authorize.
type AuthorizeRequest struct {
	ResponseType string `json:"response_type"`
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	Scope        string `json:"scope"`
	State        string `json:"state"`

	// Login local
	Username string `json:"username"`
	Password string `json:"password"`

	// Federación
	UseExternal bool   `json:"use_external"`
	Provider    string `json:"provider"`
}

// PendingGrant is stored when an auth code is issued and consumed exactly once
// by the token endpoint.
type PendingGrant struct {
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Subject     string    `json:"sub"`
	Scope       string    `json:"scope"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthResultType indicates the outcome of the authorization request.
type AuthResultType int

const (
	// AuthResultSuccess - issue auth code and redirect
	AuthResultSuccess AuthResultType = iota
	// AuthResultExternal - redirect to the upstream provider
	AuthResultExternal
	// AuthResultError - redirect with error params
	AuthResultError
)

// AuthResult is the outcome from AuthorizeService.Authorize.
type AuthResult struct {
	Type AuthResultType

	// For Success
	Code string

	// For External
	ExternalURL string

	// For Error
	ErrorCode        string
	ErrorDescription string

	// Common
	RedirectURI string
	State       string
}
