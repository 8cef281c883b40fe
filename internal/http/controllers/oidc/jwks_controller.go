package oidc

import (
	"net/http"

	svc "github.com/dropDatabas3/minioidc/internal/http/services/oidc"
)

// JWKSController maneja /jwks.json
type JWKSController struct {
	service svc.JWKSService
}

// NewJWKSController crea un nuevo controller JWKS.
func NewJWKSController(service svc.JWKSService) *JWKSController {
	return &JWKSController{service: service}
}

// Get maneja GET/HEAD /jwks.json
func (c *JWKSController) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(c.service.GetJWKS(r.Context()))
}
