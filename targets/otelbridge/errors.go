package otelbridge

import "errors"

// ErrNilProvider is returned when the bridge is created without a provider.
var ErrNilProvider = errors.New("otelbridge: logger provider is nil")
