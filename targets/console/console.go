// Package console ships records to a console stream through zerolog,
// either as line-delimited JSON or in a human-readable form.
package console

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaborage/logfan"
)

// Config controls the output stream and its formatting.
type Config struct {
	// Out is the destination stream; defaults to stdout.
	Out io.Writer

	// Pretty switches to zerolog's console writer for human readability.
	Pretty bool

	// TimeFormat applies to pretty output; defaults to RFC3339.
	TimeFormat string
}

// Target writes one line per record. It implements both the single-record
// and the batch delivery capabilities, so it can serve directly, as a sink
// behind a FlushTarget, or as a fallback.
type Target struct {
	log zerolog.Logger
}

var (
	_ logfan.Target    = (*Target)(nil)
	_ logfan.BatchSink = (*Target)(nil)
)

// New creates a console target.
func New(cfg Config) *Target {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		format := cfg.TimeFormat
		if format == "" {
			format = time.RFC3339
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: format}
	}
	return &Target{log: zerolog.New(out)}
}

// Deliver writes a single record.
func (t *Target) Deliver(_ context.Context, record logfan.Record) error {
	t.write(record)
	return nil
}

// LogRecords writes a batch, one line per record.
func (t *Target) LogRecords(_ context.Context, records []logfan.Record) error {
	for i := range records {
		t.write(records[i])
	}
	return nil
}

func (t *Target) write(record logfan.Record) {
	ev := t.log.WithLevel(zerologLevel(record.Level)).
		Time(zerolog.TimestampFieldName, record.Time).
		Str("logger", record.Logger)

	for _, f := range record.Data {
		ev = ev.Interface(f.Key, f.Value)
	}
	if record.Err != nil {
		ev = ev.Err(record.Err)
	}
	ev.Msg(record.FormatMessage())
}

func zerologLevel(level logfan.Severity) zerolog.Level {
	switch {
	case level >= logfan.Critical:
		return zerolog.FatalLevel
	case level >= logfan.Error:
		return zerolog.ErrorLevel
	case level >= logfan.Warning:
		return zerolog.WarnLevel
	case level >= logfan.Information:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
