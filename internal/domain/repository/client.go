package repository

import (
	"context"
	"slices"
)

// Client representa un cliente OIDC/OAuth registrado. Es inmutable durante la
// vida del proceso.
type Client struct {
	ID           string
	Secret       string
	RedirectURIs []string
}

// AllowsRedirect reporta si uri está en la allow-list (comparación exacta).
func (c Client) AllowsRedirect(uri string) bool {
	return uri != "" && slices.Contains(c.RedirectURIs, uri)
}

// ClientRepository resuelve clientes registrados.
type ClientRepository interface {
	// Get devuelve ErrNotFound si el cliente no existe.
	Get(ctx context.Context, clientID string) (*Client, error)

	// Authenticate compara el secreto en tiempo constante. Un cliente
	// inexistente devuelve false.
	Authenticate(ctx context.Context, clientID, secret string) bool
}
