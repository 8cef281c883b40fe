package oidc

// UserInfoResponse es la respuesta de /userinfo. Todo se deriva del subject.
type UserInfoResponse struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Scope             string `json:"scope"`
}
