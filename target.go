package logfan

import "context"

// Target is the abstract destination capability for records. A failing
// delivery is reported through the returned error and must never panic past
// the caller; the dispatch pipeline additionally recovers panics so one
// misbehaving sink cannot abort fan-out to its siblings.
type Target interface {
	Deliver(ctx context.Context, record Record) error
}

// BatchSink is the only hook a batch sink author implements: attempt to
// deliver the full batch, blocking for the duration of any I/O. Buffering,
// retries and fallback stay in the FlushTarget engine that wraps the sink.
type BatchSink interface {
	LogRecords(ctx context.Context, records []Record) error
}

// Disposer is implemented by targets owning resources that must be drained
// on shutdown. LoggerFactory.Dispose invokes it for every registered target
// that implements it, in registration order.
type Disposer interface {
	Dispose(ctx context.Context) error
}
