// Package util tiene helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail deja solo lo necesario para correlacionar logs:
// "dana.scully@corp.test" -> "d…@c….test". Sin "@" se enmascara como un
// identificador cualquiera.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		return maskWord(s)
	}
	user, dom := s[:i], s[i+1:]
	parts := strings.Split(dom, ".")
	parts[0] = maskWord(parts[0])
	return maskWord(user) + "@" + strings.Join(parts, ".")
}

func maskWord(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 1:
		return "…"
	default:
		return s[:1] + "…"
	}
}
