package logfan

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SignalKind classifies the warning signals the pipeline emits. Delivery
// failures never surface to log callers; operators learn about delayed or
// lost records exclusively through this channel.
type SignalKind int

const (
	// SignalRetryScheduled fires when a batch attempt failed and a retry
	// has been scheduled after a delay.
	SignalRetryScheduled SignalKind = iota

	// SignalRetriesExhausted fires when every configured attempt for a
	// batch failed and the fallback path is about to run.
	SignalRetriesExhausted

	// SignalFallbackFailed fires when delivery to the fallback target
	// failed as well.
	SignalFallbackFailed

	// SignalRecordsDropped fires when a batch is lost; Records carries the
	// number of dropped records.
	SignalRecordsDropped

	// SignalDeliveryFailed fires when a plain (non-buffering) target
	// returned an error during fan-out.
	SignalDeliveryFailed
)

// String returns the snake_case name of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalRetryScheduled:
		return "retry_scheduled"
	case SignalRetriesExhausted:
		return "retries_exhausted"
	case SignalFallbackFailed:
		return "fallback_failed"
	case SignalRecordsDropped:
		return "records_dropped"
	case SignalDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Signal is one warning event from the delivery pipeline.
type Signal struct {
	Kind    SignalKind
	Target  string
	BatchID string
	Attempt int
	Delay   time.Duration
	Records int
	Err     error
	Time    time.Time
}

// SignalHandler observes pipeline warning signals. Handlers run on the
// delivery goroutine and should return quickly; panics are recovered.
type SignalHandler func(Signal)

// ZerologSignalHandler routes signals to a zerolog logger at warn level.
func ZerologSignalHandler(log zerolog.Logger) SignalHandler {
	return func(s Signal) {
		ev := log.Warn().
			Str("signal", s.Kind.String()).
			Str("target", s.Target)
		if s.BatchID != "" {
			ev = ev.Str("batch_id", s.BatchID)
		}
		if s.Attempt > 0 {
			ev = ev.Int("attempt", s.Attempt)
		}
		if s.Delay > 0 {
			ev = ev.Dur("delay", s.Delay)
		}
		if s.Records > 0 {
			ev = ev.Int("records", s.Records)
		}
		if s.Err != nil {
			ev = ev.Err(s.Err)
		}
		ev.Msg("log delivery signal")
	}
}

// defaultSignalHandler writes signals to stderr so they are visible even
// when the host never installs its own handler.
var defaultSignalHandler = ZerologSignalHandler(
	zerolog.New(os.Stderr).With().Timestamp().Logger(),
)

// emitSignal invokes a handler, stamping the signal time and containing
// handler panics so the pipeline survives a faulty observer.
func emitSignal(h SignalHandler, s Signal) {
	if h == nil {
		return
	}
	if s.Time.IsZero() {
		s.Time = time.Now().UTC()
	}
	defer func() {
		_ = recover()
	}()
	h(s)
}
