package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CriticalLevel is the zap level used for "critical" records. The logger is
// never built in development mode, so DPanic only logs.
const CriticalLevel = zapcore.DPanicLevel

// Options configures NewLogger.
type Options struct {
	Level    string // console threshold: DEBUG, INFO, WARN, ERROR, CRITICAL
	FilePath string // WARN and above; empty disables the file sink
	Sink     Sink   // WARN and above; nil disables the database sink
}

// NewLogger builds a logger that tees to stderr, an optional log file and an
// optional database sink. The returned func closes the log file.
func NewLogger(opts Options) (*zap.Logger, func() error, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = encodeLevel

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stderr), parseLogLevel(opts.Level)),
	}

	closeFn := func() error { return nil }
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.WarnLevel))
		closeFn = f.Close
	}

	if opts.Sink != nil {
		cores = append(cores, NewSinkCore(opts.Sink, zapcore.WarnLevel, os.Stderr))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), closeFn, nil
}

// Critical logs msg at CriticalLevel.
func Critical(logger *zap.Logger, msg string, fields ...zap.Field) {
	if ce := logger.Check(CriticalLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}

func parseLogLevel(s string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "CRITICAL":
		return CriticalLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelName maps a zap level onto the names stored in the logs table.
func LevelName(l zapcore.Level) string {
	switch {
	case l >= CriticalLevel:
		return "CRITICAL"
	case l == zapcore.ErrorLevel:
		return "ERROR"
	case l == zapcore.WarnLevel:
		return "WARNING"
	case l == zapcore.InfoLevel:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(strings.ToLower(LevelName(l)))
}
