// Package logging builds the logr.Logger used across gainctl, backed by zap.
package logging

import (
	"context"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Verbosity levels passed to logr's V.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// New returns a production (JSON) logger, or a console logger when dev is
// set. verbosity enables V(n) for n <= verbosity.
func New(verbosity int, dev bool) (logr.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.DisableStacktrace = !dev
	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(z), nil
}

// NewTestLogger creates a development logger with every level enabled.
func NewTestLogger() logr.Logger {
	z := zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zap.NewAtomicLevelAt(zapcore.Level(-TRACE)),
		),
		zap.AddCaller(),
	)
	return zapr.NewLogger(z)
}

// NewObservedLogger returns a logger that records entries in memory, for
// tests that assert on what was logged.
func NewObservedLogger() (logr.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.Level(-TRACE))
	return zapr.NewLogger(zap.New(core)), logs
}

// IntoContext stores l in ctx.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// FromContext returns the logger in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	return logr.Discard()
}
