// Package audit emite eventos de seguridad (logins, revocaciones, bindings)
// por un logger dedicado, separable del log de requests por el campo
// logger="audit".
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

// Eventos
const (
	EventLoginSucceeded  = "login.succeeded"
	EventLoginFailed     = "login.failed"
	EventTokenRevoked    = "token.revoked"
	EventBindingCreated  = "binding.created"
	EventFederationStart = "federation.started"
)

// Log escribe un evento de auditoría. Hereda request_id y demás campos del
// logger del contexto.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}
