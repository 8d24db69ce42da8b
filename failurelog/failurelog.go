// Package failurelog keeps an append-only, human-readable record of
// upstream failures, one "{ctime} | {message}" line each.
package failurelog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultPath = "logs/api_failures.log"
	ctimeLayout = "Mon Jan _2 15:04:05 2006"
)

type Config struct {
	Path string
	// MaxSize is the size in megabytes before rotation.
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func DefaultConfig() Config {
	return Config{
		Path:       DefaultPath,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

type Log struct {
	path   string
	rotor  *lumberjack.Logger
	logger *zap.Logger
	diag   *zap.Logger
}

// New opens the log at cfg.Path, creating its directory. diag receives
// problems with the log itself and may be nil.
func New(cfg Config, diag *zap.Logger) (*Log, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create failure log dir: %w", err)
	}
	if diag == nil {
		diag = zap.NewNop()
	}

	rotor := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(ctimeLayout),
		ConsoleSeparator: " | ",
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(rotor), zapcore.InfoLevel)

	return &Log{
		path:   cfg.Path,
		rotor:  rotor,
		logger: zap.New(core),
		diag:   diag.Named("failurelog"),
	}, nil
}

// Record appends msg. It never panics; newlines in msg are flattened so
// every failure stays on one line.
func (l *Log) Record(msg string) {
	if l == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.diag.Error("record failure", zap.Any("panic", r))
		}
	}()
	l.logger.Info(strings.ReplaceAll(msg, "\n", " "))
}

// Lines returns every recorded line, each with its trailing newline. A log
// that has never been written yields no lines.
func (l *Log) Lines() ([]string, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open failure log: %w", err)
	}
	defer f.Close()

	lines := []string{}
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			break
		}
	}
	return lines, nil
}

func (l *Log) Close() error {
	_ = l.logger.Sync()
	return l.rotor.Close()
}
