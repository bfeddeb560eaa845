// Package logger provides ports.Logger implementations.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger routes structured logs through uber-go/zap.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZap creates a production console logger. Verbose enables debug output.
func NewZap(verbose bool) *ZapLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &ZapLogger{log: base.Sugar()}
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{log: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debugw(msg, flatten(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Infow(msg, flatten(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warnw(msg, flatten(fields)...)
}

func (l *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	kv := flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	l.log.Errorw(msg, kv...)
}

// Sync flushes buffered entries. Called on shutdown.
func (l *ZapLogger) Sync() {
	_ = l.log.Sync()
}

func flatten(fields map[string]interface{}) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
