// Package logger wraps zap behind the small structured-logging surface the rest of factify uses.
package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/Skshirin/factify/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger logs one structured object per entry under key.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) InfoObj(string, string, interface{})  {}
func (NopLogger) DebugObj(string, string, interface{}) {}
func (NopLogger) WarnObj(string, string, interface{})  {}
func (NopLogger) ErrorObj(string, string, interface{}) {}

// Ensure returns log, or a NopLogger when log is nil.
func Ensure(log Logger) Logger {
	if log == nil {
		return NopLogger{}
	}
	return log
}

// Zap is the production Logger: JSON lines with ISO8601 `ts`, caller, and stack traces on errors.
type Zap struct {
	base *zap.Logger
}

// Init builds the logger from config. Output goes to stderr because stdout carries results.
func Init(cfg *config.Config) (*Zap, error) {
	if cfg == nil {
		return nil, errors.New("logger config is nil")
	}
	return New(os.Stderr, cfg.LogLevel, cfg.AppName, cfg.Env), nil
}

// New writes to w at the named level, tagging every entry with app and env.
func New(w io.Writer, level, app, env string) *Zap {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		ParseLevel(level),
	)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", app), zap.String("env", env))
	return &Zap{base: base}
}

// ParseLevel maps a config level name to zap; unknown names mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func (z *Zap) InfoObj(msg, key string, obj interface{})  { z.base.Info(msg, zap.Any(key, obj)) }
func (z *Zap) DebugObj(msg, key string, obj interface{}) { z.base.Debug(msg, zap.Any(key, obj)) }
func (z *Zap) WarnObj(msg, key string, obj interface{})  { z.base.Warn(msg, zap.Any(key, obj)) }
func (z *Zap) ErrorObj(msg, key string, obj interface{}) { z.base.Error(msg, zap.Any(key, obj)) }

// Close flushes buffered entries. Terminals and pipes reject fsync; that is not an error here.
func (z *Zap) Close() error {
	if z == nil {
		return nil
	}
	err := z.base.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
