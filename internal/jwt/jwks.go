package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
)

// JWK es la representación pública (RFC 7517) de una clave RSA.
type JWK struct {
	Kty string `json:"kty"` // "RSA"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "RS256"
	Use string `json:"use"` // "sig"
	N   string `json:"n"`   // base64url(modulus)
	E   string `json:"e"`   // base64url(exponent)
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// EncodeBase64URL codifica sin padding.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// JWKS devuelve el set público con la única clave activa.
func (k *KeySet) JWKS() JWKS {
	pub := k.Public()
	return JWKS{
		Keys: []JWK{{
			Kty: "RSA",
			Kid: k.KID,
			Alg: k.Alg,
			Use: "sig",
			N:   EncodeBase64URL(pub.N.Bytes()),
			E:   EncodeBase64URL(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	b, _ := json.Marshal(k.JWKS())
	return b
}
