// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a JSON logger on stderr at the given level ("debug", "info",
// "warn", "error").
func New(level string) (*zap.Logger, error) {
	return build(level, zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(os.Stderr))
}

// NewConsole is New with a human-readable encoder, for the CLI.
func NewConsole(level string) (*zap.Logger, error) {
	return build(level, zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr))
}

func build(level string, enc zapcore.Encoder, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", level, err)
	}
	core := zapcore.NewCore(enc, sink, lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
