package logfan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxLength is the default buffer capacity before a flush triggers.
	DefaultMaxLength = 500

	// DefaultMaxRetries is the default number of delivery attempts per batch.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default base delay between attempts.
	DefaultRetryDelay = 600 * time.Millisecond
)

// FlushConfig configures a FlushTarget.
type FlushConfig struct {
	// MaxLength is the buffer capacity; reaching it triggers a flush.
	// Must be greater than zero.
	MaxLength int

	// MaxRetries is the total number of delivery attempts for a batch,
	// including the first. Zero means a single attempt with no retries.
	MaxRetries int

	// RetryDelay is the base wait between attempts. Must not be negative.
	RetryDelay time.Duration

	// ProgressiveDelay scales the wait linearly with the number of failed
	// attempts: after attempt k the engine waits RetryDelay×k. When false
	// every wait equals RetryDelay.
	ProgressiveDelay bool

	// Fallback receives the batch after retries are exhausted. The
	// reference is not owned: the engine never disposes it.
	Fallback Target

	// Name identifies the target in signals. Defaults to the sink's type.
	Name string

	// OnSignal observes pipeline warnings. Defaults to a stderr logger.
	OnSignal SignalHandler
}

// DefaultFlushConfig returns the standard engine configuration.
func DefaultFlushConfig() FlushConfig {
	return FlushConfig{
		MaxLength:        DefaultMaxLength,
		MaxRetries:       DefaultMaxRetries,
		RetryDelay:       DefaultRetryDelay,
		ProgressiveDelay: true,
	}
}

// Validate reports the first configuration error.
func (c FlushConfig) Validate() error {
	if c.MaxLength <= 0 {
		return ErrInvalidMaxLength
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	return nil
}

// FlushTarget buffers records and ships them to a BatchSink in batches,
// retrying failed batches and diverting to a fallback target when retries
// are exhausted. A size-triggered batch is detached from the live buffer
// before delivery begins, so appends keep flowing while a flush is in
// flight. Batches reach the sink in detach order: each waits for its
// predecessor's full delivery sequence, including retries, before its own
// begins. All methods are safe for concurrent use.
type FlushTarget struct {
	sink   BatchSink
	cfg    FlushConfig
	name   string
	notify SignalHandler

	mu       sync.Mutex
	buf      []Record
	disposed bool

	// tail is the done channel of the most recently detached batch; the
	// next batch waits on it so deliveries never overtake each other.
	tail chan struct{}

	inflight sync.WaitGroup

	// sleep is swappable so tests can observe retry waits without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

var (
	_ Target   = (*FlushTarget)(nil)
	_ Disposer = (*FlushTarget)(nil)
)

// NewFlushTarget wraps a sink in the buffering engine. The zero FlushConfig
// is invalid; start from DefaultFlushConfig.
func NewFlushTarget(sink BatchSink, cfg FlushConfig) (*FlushTarget, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("%T", sink)
	}
	notify := cfg.OnSignal
	if notify == nil {
		notify = defaultSignalHandler
	}
	return &FlushTarget{
		sink:   sink,
		cfg:    cfg,
		name:   name,
		notify: notify,
		buf:    make([]Record, 0, cfg.MaxLength),
		sleep:  sleepContext,
	}, nil
}

// Name returns the identifier used in signals.
func (t *FlushTarget) Name() string {
	return t.name
}

// Pending returns the number of records waiting in the live buffer.
func (t *FlushTarget) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// Deliver appends a record to the live buffer. When the buffer reaches
// MaxLength it is detached as a batch and delivered on a background
// goroutine, so the append path never blocks on sink I/O. Returns
// ErrTargetDisposed after Dispose.
func (t *FlushTarget) Deliver(ctx context.Context, record Record) error {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return ErrTargetDisposed
	}
	t.buf = append(t.buf, record)
	var batch []Record
	var prev, done chan struct{}
	if len(t.buf) >= t.cfg.MaxLength {
		batch = t.detachLocked()
		prev, done = t.chainLocked()
		t.inflight.Add(1)
	}
	t.mu.Unlock()

	if batch != nil {
		// The batch must outlive the triggering log call, so delivery
		// drops the caller's cancellation while keeping its values.
		dctx := context.WithoutCancel(ctx)
		go func() {
			defer t.inflight.Done()
			t.deliverInTurn(dctx, batch, prev, done)
		}()
	}
	return nil
}

// Flush detaches the live buffer, if non-empty, and runs the full delivery
// sequence synchronously. It returns once the batch has been delivered,
// handed to the fallback, or dropped.
func (t *FlushTarget) Flush(ctx context.Context) error {
	t.mu.Lock()
	var batch []Record
	var prev, done chan struct{}
	if len(t.buf) > 0 {
		batch = t.detachLocked()
		prev, done = t.chainLocked()
	}
	t.mu.Unlock()

	if batch != nil {
		t.deliverInTurn(ctx, batch, prev, done)
	}
	return nil
}

// Dispose flushes any residual records with the full retry and fallback
// sequence, awaits every in-flight batch, and leaves the target in a
// terminal state where Deliver fails fast. It is idempotent.
func (t *FlushTarget) Dispose(ctx context.Context) error {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		t.inflight.Wait()
		return nil
	}
	t.disposed = true
	var batch []Record
	var prev, done chan struct{}
	if len(t.buf) > 0 {
		batch = t.detachLocked()
		prev, done = t.chainLocked()
	}
	t.buf = nil
	t.mu.Unlock()

	if batch != nil {
		t.deliverInTurn(ctx, batch, prev, done)
	}
	t.inflight.Wait()
	return nil
}

// detachLocked hands the live buffer out as a batch and resets it. Callers
// must hold t.mu.
func (t *FlushTarget) detachLocked() []Record {
	batch := t.buf
	t.buf = make([]Record, 0, t.cfg.MaxLength)
	return batch
}

// chainLocked appends a link to the delivery chain and returns the
// predecessor's done channel together with this batch's own. Callers must
// hold t.mu.
func (t *FlushTarget) chainLocked() (prev, done chan struct{}) {
	prev = t.tail
	done = make(chan struct{})
	t.tail = done
	return prev, done
}

// deliverInTurn waits for the preceding batch to finish, runs the delivery
// sequence, and releases the next batch in line.
func (t *FlushTarget) deliverInTurn(ctx context.Context, batch []Record, prev, done chan struct{}) {
	defer close(done)
	if prev != nil {
		<-prev
	}
	t.deliverBatch(ctx, batch)
}

// deliverBatch runs the attempt/retry/fallback sequence for one detached
// batch. Attempts are strictly sequential; the sequence never returns an
// error because every failure is resolved into a signal.
func (t *FlushTarget) deliverBatch(ctx context.Context, batch []Record) {
	batchID := uuid.NewString()

	for attempt := 1; ; attempt++ {
		err := t.attempt(ctx, batch)
		if err == nil {
			return
		}

		if attempt >= t.cfg.MaxRetries {
			t.emit(Signal{
				Kind:    SignalRetriesExhausted,
				BatchID: batchID,
				Attempt: attempt,
				Records: len(batch),
				Err:     err,
			})
			t.useFallback(ctx, batch, batchID)
			return
		}

		delay := t.retryDelay(attempt)
		t.emit(Signal{
			Kind:    SignalRetryScheduled,
			BatchID: batchID,
			Attempt: attempt,
			Delay:   delay,
			Records: len(batch),
			Err:     err,
		})

		if serr := t.sleep(ctx, delay); serr != nil {
			// Cancelled mid-backoff: resolve the batch through the
			// fallback path instead of stranding it.
			t.emit(Signal{
				Kind:    SignalRetriesExhausted,
				BatchID: batchID,
				Attempt: attempt,
				Records: len(batch),
				Err:     serr,
			})
			t.useFallback(ctx, batch, batchID)
			return
		}
	}
}

// attempt invokes the sink once, converting panics into errors.
func (t *FlushTarget) attempt(ctx context.Context, batch []Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("logfan: sink panic: %v", r)
		}
	}()
	return t.sink.LogRecords(ctx, batch)
}

// retryDelay computes the wait charged after the given failed attempt.
func (t *FlushTarget) retryDelay(attempt int) time.Duration {
	if t.cfg.ProgressiveDelay {
		return t.cfg.RetryDelay * time.Duration(attempt)
	}
	return t.cfg.RetryDelay
}

// useFallback hands the batch to the fallback target record by record
// through its own accept path. Without a fallback, or when the fallback
// fails, the undelivered remainder is dropped and reported.
func (t *FlushTarget) useFallback(ctx context.Context, batch []Record, batchID string) {
	fallback := t.cfg.Fallback
	if fallback == nil {
		t.emit(Signal{Kind: SignalRecordsDropped, BatchID: batchID, Records: len(batch)})
		return
	}

	for i := range batch {
		if err := safeDeliver(ctx, fallback, batch[i]); err != nil {
			remaining := len(batch) - i
			t.emit(Signal{
				Kind:    SignalFallbackFailed,
				BatchID: batchID,
				Records: remaining,
				Err:     err,
			})
			t.emit(Signal{Kind: SignalRecordsDropped, BatchID: batchID, Records: remaining})
			return
		}
	}
}

func (t *FlushTarget) emit(s Signal) {
	s.Target = t.name
	emitSignal(t.notify, s)
}

// safeDeliver invokes a target, converting panics into errors.
func safeDeliver(ctx context.Context, target Target, record Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("logfan: target panic: %v", r)
		}
	}()
	return target.Deliver(ctx, record)
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
