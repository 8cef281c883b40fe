package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Códigos de error OAuth2/OIDC (RFC 6749 §4.1.2.1, §5.2; RFC 6750 §3.1).
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidScope            = "invalid_scope"
	CodeAccessDenied            = "access_denied"
	CodeLoginRequired           = "login_required"
	CodeInvalidToken            = "invalid_token"
	CodeServerError             = "server_error"
)

// OAuthError es un error de protocolo con su status HTTP.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// NewOAuth crea un OAuthError.
func NewOAuth(status int, code, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description, Status: status}
}

// AsOAuth extrae un *OAuthError de la cadena de err.
func AsOAuth(err error) (*OAuthError, bool) {
	var oe *OAuthError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// WriteOAuthError escribe {"error","error_description"} con Cache-Control: no-store.
// Un error que no es *OAuthError se responde como server_error 500.
func WriteOAuthError(w http.ResponseWriter, err error) {
	oe, ok := AsOAuth(err)
	if !ok {
		oe = NewOAuth(http.StatusInternalServerError, CodeServerError, "An unexpected error occurred")
	}
	status := oe.Status
	if status == 0 {
		status = http.StatusBadRequest
	}

	h := w.Header()
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(oe)
}
