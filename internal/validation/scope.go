// Package validation contiene validaciones de parámetros de protocolo.
package validation

import (
	"fmt"
	"strings"
)

// Scope token según RFC 6749 §3.3:
//
//	scope-token = 1*( %x21 / %x23-5B / %x5D-7E )
//
// Sin espacios, comillas dobles ni backslash. Es más permisivo que un nombre
// de scope "bonito" (acepta mayúsculas): la lista la define cada RP.
const maxScopeTokenLen = 128

// ValidScopeToken reporta si tok es un scope-token válido.
func ValidScopeToken(tok string) bool {
	if tok == "" || len(tok) > maxScopeTokenLen {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c < 0x21 || c > 0x7e || c == '"' || c == '\\' {
			return false
		}
	}
	return true
}

// NormalizeScope colapsa espacios y elimina duplicados conservando el orden.
// raw vacío devuelve "" sin error; el caller decide el default.
func NormalizeScope(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !ValidScopeToken(f) {
			return "", fmt.Errorf("invalid scope token %q", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return strings.Join(out, " "), nil
}
