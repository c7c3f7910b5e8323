package logfan

import "context"

// Logger dispatches records to the targets registered on its factory. It
// holds a live view of the registration set: targets added after the logger
// was obtained still receive its records. Loggers are cheap, immutable and
// safe for concurrent use.
//
// Variadic arguments mix positional template values and named data: values
// of type Field (see F) land in Record.Data, everything else in Record.Args.
type Logger struct {
	name    string
	factory *LoggerFactory
}

// Name returns the logger name, stamped on every record it produces.
func (l *Logger) Name() string {
	return l.name
}

// Log constructs a record at the given severity and fans it out to every
// registration whose minimum severity admits it, in registration order.
// It never fails: per-target errors surface only on the factory's signal
// channel. It returns once all dispatches have been initiated.
func (l *Logger) Log(ctx context.Context, level Severity, message string, args ...any) {
	l.factory.dispatch(ctx, l.name, level, nil, message, args)
}

// Debug logs at Debug severity.
func (l *Logger) Debug(ctx context.Context, message string, args ...any) {
	l.Log(ctx, Debug, message, args...)
}

// Info logs at Information severity.
func (l *Logger) Info(ctx context.Context, message string, args ...any) {
	l.Log(ctx, Information, message, args...)
}

// Warning logs at Warning severity.
func (l *Logger) Warning(ctx context.Context, message string, args ...any) {
	l.Log(ctx, Warning, message, args...)
}

// Error logs at Error severity.
func (l *Logger) Error(ctx context.Context, message string, args ...any) {
	l.Log(ctx, Error, message, args...)
}

// Critical logs at Critical severity.
func (l *Logger) Critical(ctx context.Context, message string, args ...any) {
	l.Log(ctx, Critical, message, args...)
}

// Exception logs an exception record at Error severity carrying err.
func (l *Logger) Exception(ctx context.Context, message string, err error, args ...any) {
	l.factory.dispatch(ctx, l.name, Error, err, message, args)
}

// CriticalException logs an exception record at Critical severity.
func (l *Logger) CriticalException(ctx context.Context, message string, err error, args ...any) {
	l.factory.dispatch(ctx, l.name, Critical, err, message, args)
}

// splitArgs separates positional template arguments from named Fields.
func splitArgs(raw []any) (args []any, data []Field) {
	for _, a := range raw {
		if f, ok := a.(Field); ok {
			data = append(data, f)
			continue
		}
		args = append(args, a)
	}
	return args, data
}
