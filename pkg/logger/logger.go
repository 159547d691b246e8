// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"

	"github.com/gomantics/gitdesk/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the logger from config: colored console output in dev, JSON
// otherwise, both at log.level.
func New() (*zap.Logger, error) {
	return build(config.IsDev(), config.Log.Level())
}

func build(dev bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
