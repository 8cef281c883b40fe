// Package memory implementa los repositorios en memoria del proceso. Es el
// backend por defecto para clientes, usuarios y bindings externos.
package memory

import (
	"context"

	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	tokens "github.com/dropDatabas3/minioidc/internal/security/token"
)

// ClientRepo es un registro inmutable construido al arrancar.
type ClientRepo struct {
	byID map[string]repository.Client
}

var _ repository.ClientRepository = (*ClientRepo)(nil)

func NewClientRepo(clients ...repository.Client) *ClientRepo {
	m := make(map[string]repository.Client, len(clients))
	for _, c := range clients {
		c.RedirectURIs = append([]string(nil), c.RedirectURIs...)
		m[c.ID] = c
	}
	return &ClientRepo{byID: m}
}

func (r *ClientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	c, ok := r.byID[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *ClientRepo) Authenticate(ctx context.Context, clientID, secret string) bool {
	c, ok := r.byID[clientID]
	if !ok || c.Secret == "" {
		// comparación dummy para no filtrar existencia por timing
		_ = tokens.Equal(secret, "x")
		return false
	}
	return tokens.Equal(secret, c.Secret)
}
