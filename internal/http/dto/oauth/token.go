package oauth

import "time"

// AuthCodeRequest contains parameters for grant_type=authorization_code.
type AuthCodeRequest struct {
	Code         string
	RedirectURI  string
	ClientID     string
	ClientSecret string
}

// RefreshTokenRequest contains parameters for grant_type=refresh_token.
type RefreshTokenRequest struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// TokenResponse is the standard OAuth2 token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// IssuedGrant is the token bundle the TokenStore indexes by access and by
// refresh token. Rotation replaces AccessToken, AccessExpiresAt and IDToken only.
type IssuedGrant struct {
	ClientID         string    `json:"client_id"`
	Subject          string    `json:"sub"`
	Scope            string    `json:"scope"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	IDToken          string    `json:"id_token"`
}
