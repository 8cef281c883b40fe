// Package helpers agrupa utilidades HTTP compartidas por los controllers.
package helpers

import (
	"net/http"
	"net/url"
	"strings"
)

// Métodos de autenticación de cliente (token_endpoint_auth_methods_supported).
const (
	ClientAuthBasic = "client_secret_basic"
	ClientAuthPost  = "client_secret_post"
)

// ClientCredentials extrae client_id/client_secret de HTTP Basic o, si no hay
// header, de los parámetros del form. Requiere r.ParseForm() previo.
// Con Basic, id y secret vienen form-urlencoded (RFC 6749 §2.3.1).
func ClientCredentials(r *http.Request) (id, secret, method string) {
	if u, p, ok := r.BasicAuth(); ok {
		if du, err := url.QueryUnescape(u); err == nil {
			u = du
		}
		if dp, err := url.QueryUnescape(p); err == nil {
			p = dp
		}
		return u, p, ClientAuthBasic
	}
	return strings.TrimSpace(r.PostForm.Get("client_id")), r.PostForm.Get("client_secret"), ClientAuthPost
}

// BearerToken devuelve el token de "Authorization: Bearer <token>" o "".
func BearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(ah) <= len(prefix) || !strings.EqualFold(ah[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(ah[len(prefix):])
}

// AppendQuery agrega params a la query de rawURL, URL-encoded. Los valores
// vacíos se omiten.
func AppendQuery(rawURL string, params ...string) string {
	var b strings.Builder
	b.WriteString(rawURL)
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	for i := 0; i+1 < len(params); i += 2 {
		if params[i+1] == "" {
			continue
		}
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(params[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[i+1]))
		sep = "&"
	}
	return b.String()
}
