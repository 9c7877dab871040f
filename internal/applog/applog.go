// Package applog constructs the shared zap logger used across the engine's
// cmd/ entry points and server-facing packages.
package applog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a development-friendly console logger when debug is true,
// otherwise a production JSON logger. Callers own the returned logger and
// should defer Sync() at the edge of main.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Values groups a set of zap.Fields under a single "values" object field, so
// a log line can carry a structured sub-record without flattening every key
// into the top-level entry.
func Values(fields ...zap.Field) zap.Field {
	return zap.Object("values", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		for _, f := range fields {
			f.AddTo(enc)
		}
		return nil
	}))
}
