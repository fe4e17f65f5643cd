// Package logger provides a thin wrapper around zap for structured logging.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger so callers do not depend on zap directly
// for construction and lifecycle management.
type Logger struct {
	*zap.Logger
}

// NewLogger creates a production logger writing JSON to stderr.
func NewLogger() (*Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: l}, nil
}

// NewDevelopmentLogger creates a console logger with human-readable output.
func NewDevelopmentLogger() (*Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	l, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: l}, nil
}

// NewNopLogger creates a logger that discards everything. Useful in tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With creates a child logger with the given fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	if l.Logger == nil {
		return l
	}

	return &Logger{Logger: l.Logger.With(fields...)}
}

// Sync flushes buffered log entries. Safe to call on a nil inner logger.
func (l *Logger) Sync() error {
	if l.Logger == nil {
		return nil
	}

	return l.Logger.Sync()
}
