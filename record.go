package logfan

import (
	"fmt"
	"time"
)

// Field is a single named datum attached to a record. Fields keep their
// insertion order so sinks can serialize records reproducibly.
type Field struct {
	Key   string
	Value any
}

// F builds a Field. It is the named-data companion of positional template
// arguments: any Field passed to a Logger call lands in Record.Data, every
// other value lands in Record.Args.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Record is one immutable log event. Sinks must treat it as read-only.
type Record struct {
	// Time is the UTC construction time.
	Time time.Time

	// Logger is the name of the logger that produced the record.
	Logger string

	// Level is the record severity; never None.
	Level Severity

	// Message is the message template; Args hold its positional arguments.
	Message string
	Args    []any

	// Data holds named values in insertion order with unique keys.
	Data []Field

	// Err is the captured error for exception records, nil otherwise.
	// The core never interprets it; sinks decide how to render it.
	Err error
}

// NewRecord builds a record and captures the current time. The args and
// data slices are copied, so later caller-side mutation cannot reach a
// record already sitting in a buffer.
func NewRecord(logger string, level Severity, message string, args []any, data []Field) Record {
	return Record{
		Time:    time.Now().UTC(),
		Logger:  logger,
		Level:   level,
		Message: message,
		Args:    append([]any(nil), args...),
		Data:    uniqueFields(data),
	}
}

// NewExceptionRecord builds a record carrying a captured error.
func NewExceptionRecord(logger string, level Severity, message string, err error, args []any, data []Field) Record {
	rec := NewRecord(logger, level, message, args, data)
	rec.Err = err
	return rec
}

// FormatMessage renders the message template against the positional
// arguments. With no arguments the template is returned verbatim.
func (r Record) FormatMessage() string {
	if len(r.Args) == 0 {
		return r.Message
	}
	return fmt.Sprintf(r.Message, r.Args...)
}

// DataValue looks up a named datum by key.
func (r Record) DataValue(key string) (any, bool) {
	for _, f := range r.Data {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// uniqueFields copies the fields, enforcing key uniqueness while preserving
// first-insertion order; a duplicate key updates the existing entry in place.
func uniqueFields(data []Field) []Field {
	if len(data) == 0 {
		return nil
	}
	out := make([]Field, 0, len(data))
	index := make(map[string]int, len(data))
	for _, f := range data {
		if i, ok := index[f.Key]; ok {
			out[i].Value = f.Value
			continue
		}
		index[f.Key] = len(out)
		out = append(out, f)
	}
	return out
}
