package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Parse valida firma RS256 con el KeySet del issuer, chequea iss y aud (si no
// están vacíos) y exp con 30s de tolerancia. Devuelve las claims como map.
func (i *Issuer) Parse(token, expectedAud string) (map[string]any, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithLeeway(30 * time.Second),
		jwtv5.WithIssuer(i.iss),
	}
	if expectedAud != "" {
		opts = append(opts, jwtv5.WithAudience(expectedAud))
	}

	tok, err := jwtv5.Parse(token, i.Keyfunc(), opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenInvalidIssuer) {
			return nil, ErrInvalidIssuer
		}
		return nil, err
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid_jwt")
	}

	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}
