package logfan

import "errors"

// ErrNilSink is returned when a FlushTarget is constructed without a sink.
var ErrNilSink = errors.New("logfan: flush target requires a batch sink")

// ErrInvalidMaxLength is returned when MaxLength is zero or negative.
var ErrInvalidMaxLength = errors.New("logfan: max length must be greater than zero")

// ErrInvalidMaxRetries is returned when MaxRetries is negative.
var ErrInvalidMaxRetries = errors.New("logfan: max retries must not be negative")

// ErrInvalidRetryDelay is returned when RetryDelay is negative.
var ErrInvalidRetryDelay = errors.New("logfan: retry delay must not be negative")

// ErrTargetDisposed is returned by Deliver after Dispose. Appending to a
// disposed target is a shutdown-ordering bug in the host, so it fails loudly
// instead of dropping the record.
var ErrTargetDisposed = errors.New("logfan: target is disposed")

// ErrUnknownSeverity is returned by ParseSeverity for unrecognized names.
var ErrUnknownSeverity = errors.New("logfan: unknown severity")
