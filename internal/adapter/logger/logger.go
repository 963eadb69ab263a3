package logger

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tasklist/internal/config"
)

// New builds the process logger. Records written through Ctx(ctx) carry the
// active trace and span ids.
func New(cfg config.LogConfig, serviceName string) (*otelzap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)

	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapConfig := zap.NewProductionConfig()

	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.InitialFields = map[string]interface{}{"service": serviceName}

	zapLogger, err := zapConfig.Build()

	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return otelzap.New(zapLogger, otelzap.WithMinLevel(level)), nil
}

func NewNop() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}
