// Package logger provides a thin wrapper around zap for structured logging.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global sugared logger instance.
var Logger = build(zapcore.InfoLevel)

func build(lvl zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log = zap.NewNop()
	}
	return log.Sugar()
}

// SetLevel rebuilds the global logger at the given level
// ("debug", "info", "warn", "error"). Unknown levels are ignored.
func SetLevel(level string) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return
	}
	Logger = build(lvl)
}

// Error logs an error message with key-value pairs.
func Error(msg string, args ...any) {
	Logger.Errorw(msg, args...)
}

// Info logs an informational message with key-value pairs.
func Info(msg string, args ...any) {
	Logger.Infow(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func Warn(msg string, args ...any) {
	Logger.Warnw(msg, args...)
}

// Debug logs a debug message with key-value pairs.
func Debug(msg string, args ...any) {
	Logger.Debugw(msg, args...)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
