package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/google/uuid"
)

// RSAKeyBits es el tamaño de la clave de firma.
const RSAKeyBits = 2048

// KeySet mantiene una sola clave activa por proceso. No hay rotación:
// el kid publicado en JWKS es siempre el del header de los tokens.
type KeySet struct {
	Priv *rsa.PrivateKey
	KID  string
	Alg  string // "RS256"
}

// NewRSAKeySet genera una clave RSA-2048 en memoria con un kid aleatorio.
func NewRSAKeySet() (*KeySet, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("jwt: generate rsa key: %w", err)
	}
	return &KeySet{
		Priv: priv,
		KID:  uuid.NewString(),
		Alg:  "RS256",
	}, nil
}

// Public devuelve la parte pública.
func (k *KeySet) Public() *rsa.PublicKey {
	return &k.Priv.PublicKey
}
