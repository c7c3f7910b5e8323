// Package logfan is a pluggable log-distribution library. Application code
// emits structured records through named loggers issued by a LoggerFactory;
// each record fans out to every registered target whose minimum severity
// admits it. The FlushTarget engine buffers records, ships them in batches,
// retries failed batches with progressive backoff, falls back to a secondary
// target on exhaustion, and drains pending records on dispose.
//
// Concrete sinks live under targets/; they only implement the BatchSink
// delivery hook, while buffering and failure policy stay in the shared
// FlushTarget engine.
package logfan
