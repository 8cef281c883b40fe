// Package social contiene DTOs del flujo de federación con IdPs externos.
package social

// ExternalLoginRequest es la intención local que viaja dentro del state.
type ExternalLoginRequest struct {
	Provider    string
	ClientID    string
	RedirectURI string
	Scope       string
	State       string
}

// CallbackRequest son los parámetros que el IdP externo devuelve al callback.
type CallbackRequest struct {
	Provider         string
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackResult es la redirección hacia el RP local (con code o con error).
type CallbackResult struct {
	RedirectURL string
}
