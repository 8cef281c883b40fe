package oidc

import (
	"context"
	"encoding/json"

	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
)

// JWKSService publica la clave pública activa.
type JWKSService interface {
	GetJWKS(ctx context.Context) json.RawMessage
}

type jwksService struct {
	doc json.RawMessage
}

// NewJWKSService serializa el JWKS una sola vez: la clave no cambia durante
// la vida del proceso.
func NewJWKSService(ks *jwtx.KeySet) JWKSService {
	return &jwksService{doc: ks.JWKSJSON()}
}

func (s *jwksService) GetJWKS(ctx context.Context) json.RawMessage {
	return s.doc
}
