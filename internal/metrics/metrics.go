// Package metrics define las métricas Prometheus del servidor. Viven en un paquete
// propio para que cache, services y middlewares las usen sin ciclos de import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minioidc_http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minioidc_http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Storage
	StoreFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minioidc_store_fallback_total",
		Help: "Operaciones de storage servidas por el fallback en memoria tras un error del primario",
	}, []string{"op"})

	// Dominio
	CodesIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minioidc_codes_issued_total",
		Help: "Authorization codes emitidos por método de login",
	}, []string{"method"}) // method: password | federation

	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minioidc_tokens_issued_total",
		Help: "Respuestas exitosas del token endpoint por grant_type",
	}, []string{"grant_type"})

	BindingsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minioidc_external_bindings_created_total",
		Help: "Bindings externos creados por provider",
	}, []string{"provider"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		StoreFallbacks,
		CodesIssued,
		TokensIssued,
		BindingsCreated,
	}
}

// Register registra las métricas en reg (o el default si es nil), ignorando duplicados.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Handler expone /metrics para el gatherer indicado (o el default).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
