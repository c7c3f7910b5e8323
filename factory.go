package logfan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultDispatchLimit bounds the number of concurrent fire-and-forget
// dispatches to plain (non-buffering) targets.
const DefaultDispatchLimit = 16

// Registration binds a target to the minimum severity that admits records.
type Registration struct {
	Target   Target
	MinLevel Severity
}

// LoggerFactory owns the target registrations, issues Loggers that share
// them, and coordinates orderly shutdown of every buffering target.
type LoggerFactory struct {
	mu            sync.RWMutex
	registrations []Registration
	loggers       map[string]*Logger
	disposed      bool

	// dispatches bounds concurrent deliveries to plain targets. inflight
	// counts them for Dispose; it is incremented under mu while disposed
	// is still false, so no increment can interleave with the Wait that
	// Dispose runs after flipping the flag.
	dispatches *errgroup.Group
	inflight   sync.WaitGroup

	onSignal SignalHandler
}

// FactoryOption customizes a LoggerFactory at construction.
type FactoryOption func(*LoggerFactory)

// WithSignalHandler routes the factory's warning signals (plain-target
// delivery failures) to h instead of the default stderr logger.
func WithSignalHandler(h SignalHandler) FactoryOption {
	return func(f *LoggerFactory) {
		f.onSignal = h
	}
}

// WithDispatchLimit bounds concurrent plain-target dispatches; n < 1 means
// unbounded.
func WithDispatchLimit(n int) FactoryOption {
	return func(f *LoggerFactory) {
		if n < 1 {
			n = -1
		}
		f.dispatches.SetLimit(n)
	}
}

// NewLoggerFactory creates an empty factory. Hosts construct and pass it
// explicitly; there is no ambient global registry.
func NewLoggerFactory(opts ...FactoryOption) *LoggerFactory {
	f := &LoggerFactory{
		loggers:    make(map[string]*Logger),
		dispatches: &errgroup.Group{},
		onSignal:   defaultSignalHandler,
	}
	f.dispatches.SetLimit(DefaultDispatchLimit)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddTarget registers a target with its minimum admissible severity and
// returns the factory for chaining. Registration order is fan-out order.
// Duplicate target instances are permitted. Passing None admits every
// record. Calls after Dispose are ignored.
func (f *LoggerFactory) AddTarget(target Target, minLevel Severity) *LoggerFactory {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed || target == nil {
		return f
	}
	f.registrations = append(f.registrations, Registration{Target: target, MinLevel: minLevel})
	return f
}

// Targets returns a snapshot of the current registrations.
func (f *LoggerFactory) Targets() []Registration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Registration, len(f.registrations))
	copy(out, f.registrations)
	return out
}

// GetLogger returns the logger for name, creating it on first request.
// The same name always yields the same *Logger (pointer identity). After
// Dispose it still hands out loggers, but their dispatch is a no-op.
func (f *LoggerFactory) GetLogger(name string) *Logger {
	f.mu.RLock()
	if l, ok := f.loggers[name]; ok {
		f.mu.RUnlock()
		return l
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.loggers[name]; ok {
		return l
	}
	l := &Logger{name: name, factory: f}
	f.loggers[name] = l
	return l
}

// Dispose drains the pipeline: it stops accepting records, awaits in-flight
// plain-target dispatches, then disposes every registered Disposer in
// registration order, awaiting each before moving on. Per-target errors do
// not stop the sweep; they are joined into the returned error. Idempotent.
func (f *LoggerFactory) Dispose(ctx context.Context) error {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return nil
	}
	f.disposed = true
	regs := f.registrations
	f.mu.Unlock()

	f.inflight.Wait()

	var errs []error
	for _, reg := range regs {
		d, ok := reg.Target.(Disposer)
		if !ok {
			continue
		}
		if err := d.Dispose(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatch is the shared logging path behind every Logger method.
func (f *LoggerFactory) dispatch(ctx context.Context, name string, level Severity, err error, message string, raw []any) {
	f.mu.RLock()
	if f.disposed {
		f.mu.RUnlock()
		return
	}
	// The registration slice is append-only, so iterating the header copy
	// outside the lock is safe.
	regs := f.registrations
	// Plain-target deliveries must be counted before the lock is released:
	// once Dispose has taken the write lock and set disposed, it relies on
	// inflight covering every admitted dispatch.
	for _, reg := range regs {
		if level < reg.MinLevel {
			continue
		}
		if _, ok := reg.Target.(*FlushTarget); !ok {
			f.inflight.Add(1)
		}
	}
	f.mu.RUnlock()

	args, data := splitArgs(raw)
	var rec Record
	if err != nil {
		rec = NewExceptionRecord(name, level, message, err, args, data)
	} else {
		rec = NewRecord(name, level, message, args, data)
	}

	for _, reg := range regs {
		if level < reg.MinLevel {
			continue
		}

		if ft, ok := reg.Target.(*FlushTarget); ok {
			// Buffering targets append under their own mutex, which keeps
			// per-target order equal to call order.
			if derr := ft.Deliver(ctx, rec); derr != nil {
				f.emitDeliveryFailure(ft.Name(), derr)
			}
			continue
		}

		target := reg.Target
		dctx := context.WithoutCancel(ctx)
		f.dispatches.Go(func() error {
			defer f.inflight.Done()
			if derr := safeDeliver(dctx, target, rec); derr != nil {
				f.emitDeliveryFailure(fmt.Sprintf("%T", target), derr)
			}
			return nil
		})
	}
}

func (f *LoggerFactory) emitDeliveryFailure(target string, err error) {
	emitSignal(f.onSignal, Signal{
		Kind:    SignalDeliveryFailed,
		Target:  target,
		Records: 1,
		Err:     err,
	})
}
