// Package oidc contiene los controllers para endpoints OIDC/Discovery.
package oidc

import (
	"net/http"

	"github.com/dropDatabas3/minioidc/internal/http/helpers"
	svc "github.com/dropDatabas3/minioidc/internal/http/services/oidc"
)

// DiscoveryController maneja /.well-known/openid-configuration
type DiscoveryController struct {
	service svc.DiscoveryService
}

// NewDiscoveryController crea un nuevo controller de discovery.
func NewDiscoveryController(service svc.DiscoveryService) *DiscoveryController {
	return &DiscoveryController{service: service}
}

// Get maneja GET /.well-known/openid-configuration
func (c *DiscoveryController) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=600")
	helpers.WriteJSON(w, http.StatusOK, c.service.GetDiscovery(r.Context()))
}
