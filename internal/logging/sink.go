package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const sinkWriteTimeout = 5 * time.Second

// Sink persists log records, typically into the logs table.
type Sink interface {
	WriteLog(ctx context.Context, ts time.Time, level, message string) error
}

// sinkCore is a zapcore.Core that forwards entries to a Sink. A failed write
// is reported on errOut and dropped; Write never returns it to zap.
type sinkCore struct {
	zapcore.LevelEnabler
	enc    zapcore.Encoder
	sink   Sink
	errOut io.Writer
}

// NewSinkCore returns a core writing entries at or above enab to sink.
func NewSinkCore(sink Sink, enab zapcore.LevelEnabler, errOut io.Writer) zapcore.Core {
	return &sinkCore{
		LevelEnabler: enab,
		enc: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:       "msg",
			ConsoleSeparator: "\t",
		}),
		sink:   sink,
		errOut: errOut,
	}
}

func (c *sinkCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &sinkCore{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		sink:         c.sink,
		errOut:       c.errOut,
	}
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *sinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *sinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error logging to DB: %v\n", err)
		return nil
	}
	message := strings.TrimRight(buf.String(), "\n")
	buf.Free()

	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()

	if err := c.sink.WriteLog(ctx, ent.Time, LevelName(ent.Level), message); err != nil {
		fmt.Fprintf(c.errOut, "Error logging to DB: %v\n", err)
	}
	return nil
}

func (c *sinkCore) Sync() error {
	return nil
}
