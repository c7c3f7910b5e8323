// Package otelbridge emits records as OpenTelemetry log records against a
// caller-provided LoggerProvider. Exporter and provider wiring stay with
// the host; the bridge only converts and emits.
package otelbridge

import (
	"context"
	"fmt"
	"time"

	otellog "go.opentelemetry.io/otel/log"

	"github.com/gaborage/logfan"
)

// instrumentationName identifies the bridge scope on emitted records.
const instrumentationName = "github.com/gaborage/logfan"

// Bridge converts records to OTel log records. It implements both the
// single-record and batch delivery capabilities.
type Bridge struct {
	logger otellog.Logger
}

var (
	_ logfan.Target    = (*Bridge)(nil)
	_ logfan.BatchSink = (*Bridge)(nil)
)

// New creates a bridge against the given provider.
func New(provider otellog.LoggerProvider) (*Bridge, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return &Bridge{logger: provider.Logger(instrumentationName)}, nil
}

// Deliver emits a single record.
func (b *Bridge) Deliver(ctx context.Context, record logfan.Record) error {
	b.logger.Emit(ctx, convert(record))
	return nil
}

// LogRecords emits the batch in order. Emit is fire-and-forget in the OTel
// API; batching and export failures are the provider's concern.
func (b *Bridge) LogRecords(ctx context.Context, records []logfan.Record) error {
	for i := range records {
		b.logger.Emit(ctx, convert(records[i]))
	}
	return nil
}

func convert(record logfan.Record) otellog.Record {
	var rec otellog.Record
	rec.SetTimestamp(record.Time)
	rec.SetSeverity(otelSeverity(record.Level))
	rec.SetSeverityText(record.Level.String())
	rec.SetBody(otellog.StringValue(record.FormatMessage()))

	attrs := make([]otellog.KeyValue, 0, len(record.Data)+2)
	attrs = append(attrs, otellog.String("logger.name", record.Logger))
	for _, f := range record.Data {
		attrs = append(attrs, otellog.KeyValue{Key: f.Key, Value: logValue(f.Value)})
	}
	if record.Err != nil {
		attrs = append(attrs, otellog.String("exception.message", record.Err.Error()))
	}
	rec.AddAttributes(attrs...)
	return rec
}

func otelSeverity(level logfan.Severity) otellog.Severity {
	switch {
	case level >= logfan.Critical:
		return otellog.SeverityFatal
	case level >= logfan.Error:
		return otellog.SeverityError
	case level >= logfan.Warning:
		return otellog.SeverityWarn
	case level >= logfan.Information:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

func logValue(v any) otellog.Value {
	switch x := v.(type) {
	case string:
		return otellog.StringValue(x)
	case bool:
		return otellog.BoolValue(x)
	case int:
		return otellog.IntValue(x)
	case int64:
		return otellog.Int64Value(x)
	case float64:
		return otellog.Float64Value(x)
	case []byte:
		return otellog.BytesValue(x)
	case time.Duration:
		return otellog.StringValue(x.String())
	case error:
		return otellog.StringValue(x.Error())
	default:
		return otellog.StringValue(fmt.Sprintf("%v", x))
	}
}
