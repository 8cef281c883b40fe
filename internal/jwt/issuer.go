package jwt

import (
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidIssuer = errors.New("invalid issuer")
	ErrUnknownKID    = errors.New("unknown kid")
)

// Issuer firma JWTs con la clave activa del KeySet.
type Issuer struct {
	iss  string
	keys *KeySet
}

func NewIssuer(iss string, ks *KeySet) *Issuer {
	return &Issuer{iss: iss, keys: ks}
}

// Iss devuelve el issuer ("iss") configurado.
func (i *Issuer) Iss() string { return i.iss }

// Keys expone el KeySet (JWKS).
func (i *Issuer) Keys() *KeySet { return i.keys }

// ActiveKID devuelve el KID activo.
func (i *Issuer) ActiveKID() string { return i.keys.KID }

// SignRaw firma un MapClaims arbitrario, setea header kid/typ y devuelve el JWT firmado.
func (i *Issuer) SignRaw(claims jwtv5.MapClaims) (string, string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = i.keys.KID
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(i.keys.Priv)
	if err != nil {
		return "", "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, i.keys.KID, nil
}

// Keyfunc resuelve la pubkey por 'kid'. Un kid distinto del activo falla.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != "" && kid != i.keys.KID {
			return nil, ErrUnknownKID
		}
		return i.keys.Public(), nil
	}
}
