package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dropDatabas3/minioidc/internal/util/atomicwrite"
)

const (
	pemTypePrivateKey = "PRIVATE KEY"
	pemHeaderKID      = "Kid"
)

// LoadOrCreateKeySet carga la clave desde path (PEM PKCS#8 con header Kid).
// Si el archivo no existe genera una nueva y la persiste con permisos 0600.
// path vacío => clave efímera.
func LoadOrCreateKeySet(path string) (ks *KeySet, created bool, err error) {
	if strings.TrimSpace(path) == "" {
		ks, err = NewRSAKeySet()
		return ks, true, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		ks, err = DecodeKeySetPEM(data)
		if err != nil {
			return nil, false, fmt.Errorf("jwt: load %s: %w", path, err)
		}
		return ks, false, nil
	case errors.Is(err, fs.ErrNotExist):
		ks, err = NewRSAKeySet()
		if err != nil {
			return nil, false, err
		}
		if err := SaveKeySet(path, ks); err != nil {
			return nil, false, err
		}
		return ks, true, nil
	default:
		return nil, false, fmt.Errorf("jwt: read %s: %w", path, err)
	}
}

// EncodeKeySetPEM serializa la clave privada (PKCS#8) con el kid como header PEM.
func EncodeKeySetPEM(ks *KeySet) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(ks.Priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:    pemTypePrivateKey,
		Headers: map[string]string{pemHeaderKID: ks.KID},
		Bytes:   der,
	}), nil
}

// DecodeKeySetPEM es la inversa de EncodeKeySetPEM.
func DecodeKeySetPEM(data []byte) (*KeySet, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePrivateKey {
		return nil, errors.New("no PRIVATE KEY block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported key type %T", key)
	}
	kid := block.Headers[pemHeaderKID]
	if kid == "" {
		return nil, errors.New("missing Kid header")
	}
	return &KeySet{Priv: priv, KID: kid, Alg: "RS256"}, nil
}

// SaveKeySet escribe la clave de forma atómica: tmp -> fsync -> rename.
func SaveKeySet(path string, ks *KeySet) error {
	data, err := EncodeKeySetPEM(ks)
	if err != nil {
		return fmt.Errorf("jwt: encode key: %w", err)
	}
	return atomicwrite.WriteFile(path, data, 0o600)
}
