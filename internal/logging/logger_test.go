package logging

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type record struct {
	level   string
	message string
}

type fakeSink struct {
	mu      sync.Mutex
	records []record
	err     error
}

func (s *fakeSink) WriteLog(_ context.Context, _ time.Time, level, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record{level: level, message: message})
	return nil
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"warning", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{" critical ", CriticalLevel},
		{"invalid", zap.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.env); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

func TestLevelName(t *testing.T) {
	tests := map[zapcore.Level]string{
		zapcore.DebugLevel:  "DEBUG",
		zapcore.InfoLevel:   "INFO",
		zapcore.WarnLevel:   "WARNING",
		zapcore.ErrorLevel:  "ERROR",
		zapcore.DPanicLevel: "CRITICAL",
		zapcore.FatalLevel:  "CRITICAL",
	}
	for lvl, want := range tests {
		if got := LevelName(lvl); got != want {
			t.Errorf("LevelName(%v) = %q, want %q", lvl, got, want)
		}
	}
}

func TestSinkCoreWritesWarningsAndAbove(t *testing.T) {
	sink := &fakeSink{}
	logger := zap.New(NewSinkCore(sink, zapcore.WarnLevel, &bytes.Buffer{}))

	logger.Info("ignored")
	logger.With(zap.Int64("city_id", 7)).Warn("bad request")
	logger.Error("fetch failed")
	Critical(logger, "unexpected")

	if len(sink.records) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(sink.records), sink.records)
	}
	if sink.records[0].level != "WARNING" {
		t.Errorf("level = %q, want WARNING", sink.records[0].level)
	}
	if !strings.HasPrefix(sink.records[0].message, "bad request") || !strings.Contains(sink.records[0].message, `"city_id": 7`) {
		t.Errorf("unexpected message %q", sink.records[0].message)
	}
	if sink.records[2].level != "CRITICAL" || sink.records[2].message != "unexpected" {
		t.Errorf("unexpected critical record %+v", sink.records[2])
	}
}

func TestSinkCoreSwallowsWriteErrors(t *testing.T) {
	var errOut bytes.Buffer
	sink := &fakeSink{err: errors.New("database is locked")}
	logger := zap.New(NewSinkCore(sink, zapcore.WarnLevel, &errOut))

	logger.Error("boom")

	if !strings.Contains(errOut.String(), "Error logging to DB: database is locked") {
		t.Errorf("expected sink failure on errOut, got %q", errOut.String())
	}
}

func TestNewLogger(t *testing.T) {
	sink := &fakeSink{}
	logger, closeFn, err := NewLogger(Options{
		Level:    "INFO",
		FilePath: filepath.Join(t.TempDir(), "logs", "logs.txt"),
		Sink:     sink,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer closeFn()

	logger.Info("test message")
	logger.Warn("warned")
	_ = logger.Sync()

	if len(sink.records) != 1 || sink.records[0].level != "WARNING" {
		t.Errorf("expected one WARNING record in sink, got %+v", sink.records)
	}
}
