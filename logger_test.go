package logfan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityThresholdFanout(t *testing.T) {
	targetA := &memoryTarget{}
	targetB := &memoryTarget{}
	f := NewLoggerFactory(WithSignalHandler(func(Signal) {}))
	f.AddTarget(targetA, Information).AddTarget(targetB, Error)

	ctx := context.Background()
	log := f.GetLogger("api")
	log.Warning(ctx, "slow request")
	log.Critical(ctx, "broker down")
	require.NoError(t, f.Dispose(ctx))

	aLevels := recordLevels(targetA.all())
	bLevels := recordLevels(targetB.all())
	assert.ElementsMatch(t, []Severity{Warning, Critical}, aLevels)
	assert.Equal(t, []Severity{Critical}, bLevels)
}

func recordLevels(recs []Record) []Severity {
	out := make([]Severity, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Level)
	}
	return out
}

func TestNoneMinimumAdmitsEverything(t *testing.T) {
	target := &memoryTarget{}
	f := NewLoggerFactory()
	f.AddTarget(target, None)

	ctx := context.Background()
	f.GetLogger("x").Debug(ctx, "verbose detail")
	require.NoError(t, f.Dispose(ctx))

	assert.Len(t, target.all(), 1)
}

func TestTargetFailureDoesNotAffectSiblings(t *testing.T) {
	rec := &signalRecorder{}
	healthy := &memoryTarget{}
	f := NewLoggerFactory(WithSignalHandler(rec.handler()))
	f.AddTarget(failingTarget{}, None).AddTarget(healthy, None)

	ctx := context.Background()
	require.NotPanics(t, func() {
		f.GetLogger("x").Info(ctx, "still delivered")
	})
	require.NoError(t, f.Dispose(ctx))

	assert.Len(t, healthy.all(), 1)
	failures := rec.ofKind(SignalDeliveryFailed)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, errSinkDown)
}

func TestPanickingTargetIsContained(t *testing.T) {
	rec := &signalRecorder{}
	healthy := &memoryTarget{}
	f := NewLoggerFactory(WithSignalHandler(rec.handler()))
	f.AddTarget(panickingTarget{}, None).AddTarget(healthy, None)

	ctx := context.Background()
	require.NotPanics(t, func() {
		f.GetLogger("x").Info(ctx, "survives")
	})
	require.NoError(t, f.Dispose(ctx))

	assert.Len(t, healthy.all(), 1)
	require.Len(t, rec.ofKind(SignalDeliveryFailed), 1)
}

type panickingTarget struct{}

func (panickingTarget) Deliver(_ context.Context, _ Record) error {
	panic("target exploded")
}

func TestFlushTargetAppendOrderMatchesCallOrder(t *testing.T) {
	sink := &memorySink{}
	cfg := quietConfig()
	cfg.MaxLength = 100
	ft, err := NewFlushTarget(sink, cfg)
	require.NoError(t, err)

	f := NewLoggerFactory()
	f.AddTarget(ft, None)
	log := f.GetLogger("seq")

	ctx := context.Background()
	const n = 25
	for i := 0; i < n; i++ {
		log.Info(ctx, "message %d", i)
	}
	require.NoError(t, f.Dispose(ctx))

	require.Equal(t, 1, sink.batchCount())
	batch := sink.batch(0)
	require.Len(t, batch, n)
	for i, r := range batch {
		assert.Equal(t, fmt.Sprintf("message %d", i), r.FormatMessage())
	}
}

func TestPositionalArgsAndNamedFieldsSplit(t *testing.T) {
	target := &memoryTarget{}
	f := NewLoggerFactory()
	f.AddTarget(target, None)

	ctx := context.Background()
	f.GetLogger("x").Info(ctx, "user %s from %s", "ada", F("request_id", "r-1"), "10.0.0.1", F("tenant", "t-9"))
	require.NoError(t, f.Dispose(ctx))

	recs := target.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "user ada from 10.0.0.1", recs[0].FormatMessage())
	assert.Equal(t, []Field{F("request_id", "r-1"), F("tenant", "t-9")}, recs[0].Data)
}

func TestExceptionShorthands(t *testing.T) {
	target := &memoryTarget{}
	f := NewLoggerFactory()
	f.AddTarget(target, None)

	cause := errors.New("connection reset")
	ctx := context.Background()
	log := f.GetLogger("x")
	log.Exception(ctx, "fetch failed", cause)
	log.CriticalException(ctx, "fetch failed for good", cause)
	require.NoError(t, f.Dispose(ctx))

	recs := target.all()
	require.Len(t, recs, 2)
	levels := recordLevels(recs)
	assert.ElementsMatch(t, []Severity{Error, Critical}, levels)
	for _, r := range recs {
		assert.Same(t, cause, r.Err)
	}
}

func TestLevelShorthandsFixSeverity(t *testing.T) {
	sink := &memorySink{}
	cfg := quietConfig()
	cfg.MaxLength = 100
	ft, err := NewFlushTarget(sink, cfg)
	require.NoError(t, err)

	f := NewLoggerFactory()
	f.AddTarget(ft, None)
	log := f.GetLogger("levels")

	ctx := context.Background()
	log.Debug(ctx, "d")
	log.Info(ctx, "i")
	log.Warning(ctx, "w")
	log.Error(ctx, "e")
	log.Critical(ctx, "c")
	require.NoError(t, f.Dispose(ctx))

	require.Equal(t, 1, sink.batchCount())
	assert.Equal(t, []Severity{Debug, Information, Warning, Error, Critical}, recordLevels(sink.batch(0)))
}

func TestConcurrentLoggingPreservesNoRecords(t *testing.T) {
	sink := &memorySink{}
	cfg := quietConfig()
	cfg.MaxLength = 7
	ft, err := NewFlushTarget(sink, cfg)
	require.NoError(t, err)

	f := NewLoggerFactory()
	f.AddTarget(ft, None)
	log := f.GetLogger("concurrent")

	ctx := context.Background()
	const writers, perWriter = 8, 50
	done := make(chan struct{})
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < perWriter; i++ {
				log.Info(ctx, "writer %d message %d", w, i)
			}
		}(w)
	}
	for w := 0; w < writers; w++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("writers did not finish")
		}
	}
	require.NoError(t, f.Dispose(ctx))

	total := 0
	for i := 0; i < sink.batchCount(); i++ {
		total += len(sink.batch(i))
	}
	assert.Equal(t, writers*perWriter, total)
}
