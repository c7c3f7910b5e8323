package otelbridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/gaborage/logfan"
)

// captureProcessor records emitted log records so tests can inspect them.
type captureProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *captureProcessor) OnEmit(_ context.Context, record *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record.Clone())
	return nil
}

func (p *captureProcessor) Shutdown(context.Context) error   { return nil }
func (p *captureProcessor) ForceFlush(context.Context) error { return nil }

func (p *captureProcessor) snapshot() []sdklog.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sdklog.Record(nil), p.records...)
}

func newCaptureBridge(t *testing.T) (*Bridge, *captureProcessor) {
	t.Helper()
	proc := &captureProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(proc))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	bridge, err := New(provider)
	require.NoError(t, err)
	return bridge, proc
}

func attributesOf(record sdklog.Record) map[string]otellog.Value {
	attrs := make(map[string]otellog.Value)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	return attrs
}

func TestBridgeNilProvider(t *testing.T) {
	bridge, err := New(nil)
	require.ErrorIs(t, err, ErrNilProvider)
	assert.Nil(t, bridge)
}

func TestBridgeDeliverEmitsRecord(t *testing.T) {
	bridge, proc := newCaptureBridge(t)

	record := logfan.NewRecord("orders", logfan.Error, "order %s rejected", []any{"A-17"},
		[]logfan.Field{logfan.F("order_id", "A-17"), logfan.F("retries", 3)})

	require.NoError(t, bridge.Deliver(context.Background(), record))
	require.Len(t, proc.records, 1)

	got := proc.records[0]
	assert.Equal(t, otellog.SeverityError, got.Severity())
	assert.Equal(t, "error", got.SeverityText())
	assert.Equal(t, "order A-17 rejected", got.Body().AsString())
	assert.Equal(t, record.Time, got.Timestamp())

	attrs := attributesOf(got)
	assert.Equal(t, "orders", attrs["logger.name"].AsString())
	assert.Equal(t, "A-17", attrs["order_id"].AsString())
	assert.Equal(t, int64(3), attrs["retries"].AsInt64())
}

func TestBridgeDeliverExceptionAttribute(t *testing.T) {
	bridge, proc := newCaptureBridge(t)

	record := logfan.NewExceptionRecord("payments", logfan.Critical, "settle failed", errors.New("ledger offline"), nil, nil)
	require.NoError(t, bridge.Deliver(context.Background(), record))
	require.Len(t, proc.records, 1)

	attrs := attributesOf(proc.records[0])
	assert.Equal(t, "ledger offline", attrs["exception.message"].AsString())
	assert.Equal(t, otellog.SeverityFatal, proc.records[0].Severity())
}

func TestBridgeLogRecordsPreservesOrder(t *testing.T) {
	bridge, proc := newCaptureBridge(t)

	batch := []logfan.Record{
		logfan.NewRecord("seq", logfan.Information, "first", nil, nil),
		logfan.NewRecord("seq", logfan.Information, "second", nil, nil),
		logfan.NewRecord("seq", logfan.Information, "third", nil, nil),
	}

	require.NoError(t, bridge.LogRecords(context.Background(), batch))
	require.Len(t, proc.records, 3)
	assert.Equal(t, "first", proc.records[0].Body().AsString())
	assert.Equal(t, "second", proc.records[1].Body().AsString())
	assert.Equal(t, "third", proc.records[2].Body().AsString())
}

func TestOTelSeverityMapping(t *testing.T) {
	tests := []struct {
		level    logfan.Severity
		expected otellog.Severity
	}{
		{logfan.None, otellog.SeverityDebug},
		{logfan.Debug, otellog.SeverityDebug},
		{logfan.Information, otellog.SeverityInfo},
		{logfan.Warning, otellog.SeverityWarn},
		{logfan.Error, otellog.SeverityError},
		{logfan.Critical, otellog.SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, otelSeverity(tt.level))
		})
	}
}

func TestLogValueConversions(t *testing.T) {
	assert.Equal(t, otellog.StringValue("s"), logValue("s"))
	assert.Equal(t, otellog.BoolValue(true), logValue(true))
	assert.Equal(t, otellog.IntValue(7), logValue(7))
	assert.Equal(t, otellog.Int64Value(9), logValue(int64(9)))
	assert.Equal(t, otellog.Float64Value(1.5), logValue(1.5))
	assert.Equal(t, otellog.StringValue("1.5s"), logValue(1500*time.Millisecond))
	assert.Equal(t, otellog.StringValue("boom"), logValue(errors.New("boom")))
	assert.Equal(t, otellog.StringValue("[1 2]"), logValue([]int{1, 2}))
}

func TestBridgeBehindFlushTarget(t *testing.T) {
	bridge, proc := newCaptureBridge(t)

	cfg := logfan.DefaultFlushConfig()
	cfg.MaxLength = 2
	target, err := logfan.NewFlushTarget(bridge, cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, target.Deliver(ctx, logfan.NewRecord("svc", logfan.Information, "a", nil, nil)))
	require.NoError(t, target.Deliver(ctx, logfan.NewRecord("svc", logfan.Information, "b", nil, nil)))

	require.Eventually(t, func() bool {
		return len(proc.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, target.Dispose(ctx))
}
