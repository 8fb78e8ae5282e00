package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"imgscout/internal/application/port/output"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type LoggerAdapter struct {
	zl   *zap.Logger
	file *os.File
}

// Options configures NewLoggerAdapter. An empty Dir disables the file sink.
type Options struct {
	Name         string
	Dir          string
	ConsoleLevel string
}

// NewLoggerAdapter writes JSON lines to <Dir>/<timestamp>_<name>.log and, at
// ConsoleLevel and above, human readable lines to stderr.
func NewLoggerAdapter(opts Options) (*LoggerAdapter, error) {
	level, err := zapcore.ParseLevel(defaultLevel(opts.ConsoleLevel))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	var file *os.File
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(opts.Name))
		file, err = os.Create(filepath.Join(opts.Dir, filename))
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}

		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.RFC3339TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), zapcore.DebugLevel))
	}

	return &LoggerAdapter{
		zl:   zap.New(zapcore.NewTee(cores...)),
		file: file,
	}, nil
}

// NewNop discards everything. Used in tests.
func NewNop() *LoggerAdapter {
	return &LoggerAdapter{zl: zap.NewNop()}
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.zl.Debug(msg, toFields(args)...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.zl.Info(msg, toFields(args)...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.zl.Warn(msg, toFields(args)...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.zl.Error(msg, toFields(args)...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{zl: l.zl.With(zap.Any(key, value)), file: l.file}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return &LoggerAdapter{zl: l.zl.With(zf...), file: l.file}
}

func (l *LoggerAdapter) Close() error {
	_ = l.zl.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
