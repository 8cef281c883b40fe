package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config del logger del proceso. Se arma desde config.Log y config.App en
// cmd/minioidc.
type Config struct {
	Env         string // "prod" => JSON; cualquier otro valor => consola
	Level       string // debug | info | warn | error; default info
	ServiceName string // default "minioidc"
	Version     string
}

func build(cfg Config) *zap.Logger {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "minioidc"
	}
	prod := strings.EqualFold(strings.TrimSpace(cfg.Env), "prod")

	var zcfg zap.Config
	opts := []zap.Option{zap.AddCaller()}
	if prod {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	base := []zap.Field{zap.String("service", cfg.ServiceName)}
	if cfg.Version != "" {
		base = append(base, zap.String("version", cfg.Version))
	}
	opts = append(opts, zap.Fields(base...))

	l, err := zcfg.Build(opts...)
	if err != nil {
		// encoder o sink inválido: seguimos con JSON a stderr
		return zap.NewExample(zap.Fields(base...))
	}
	return l
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
