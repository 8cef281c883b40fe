package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init construye el logger del proceso. Solo la primera llamada cuenta, así
// que cmd/minioidc lo llama antes de armar el servidor.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L devuelve el logger del proceso; sin Init previo usa dev/info.
func L() *zap.Logger {
	Init(Config{Env: "dev", Level: "info"})
	return instance
}

// Sync flushea buffers pendientes (defer en main).
func Sync() error {
	if instance == nil {
		return nil
	}
	return instance.Sync()
}
