package oauth

// RevokeRequest contains parameters for POST /revoke (RFC 7009).
type RevokeRequest struct {
	Token         string
	TokenTypeHint string // "access_token" | "refresh_token" | ""
	ClientID      string
	ClientSecret  string
}
