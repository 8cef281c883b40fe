// Package health contiene el DTO de /healthz.
package health

// HealthResponse es la respuesta de /healthz.
type HealthResponse struct {
	Status      string            `json:"status"` // ready | degraded
	ActiveKeyID string            `json:"active_kid"`
	Components  map[string]string `json:"components"`
}
