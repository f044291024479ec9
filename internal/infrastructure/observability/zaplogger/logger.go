package zaplogger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct{ l *zap.Logger }

// New builds the process logger behind the observability.Logger port: JSON to
// stdout, lowercase levels, RFC3339 timestamps. Fixed fields appear on every
// entry. LOG_LEVEL overrides the info default; LOG_FILE duplicates output to
// a file for local debugging.
func New(fixed ...observability.Field) observability.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := zapcore.ParseLevel(raw)
		if err != nil {
			panic(fmt.Errorf("parse LOG_LEVEL: %w", err))
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		if err := touchFile(path); err != nil {
			panic(fmt.Errorf("prepare log file: %w", err))
		}
		cfg.OutputPaths = append(cfg.OutputPaths, path)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, path)
	}

	cfg.InitialFields = make(map[string]any, len(fixed))
	for _, f := range fixed {
		cfg.InitialFields[f.Key] = f.Value
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &zapLogger{l: l}
}

func (z *zapLogger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return z
	}
	return &zapLogger{l: z.l.With(toZap(fields)...)}
}

func (z *zapLogger) Debug(msg string, fields ...observability.Field) { z.l.Debug(msg, toZap(fields)...) }
func (z *zapLogger) Info(msg string, fields ...observability.Field)  { z.l.Info(msg, toZap(fields)...) }
func (z *zapLogger) Warn(msg string, fields ...observability.Field)  { z.l.Warn(msg, toZap(fields)...) }
func (z *zapLogger) Error(msg string, fields ...observability.Field) { z.l.Error(msg, toZap(fields)...) }

// Sync flushes buffered entries. Safe to call on shutdown.
func (z *zapLogger) Sync() error { return z.l.Sync() }

func toZap(fields []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func touchFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
