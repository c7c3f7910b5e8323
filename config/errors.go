package config

import "errors"

// ErrNilConfig is returned when Validate is called on a nil Config pointer.
var ErrNilConfig = errors.New("config: config is nil")

// ErrInvalidConfig wraps structural validation failures.
var ErrInvalidConfig = errors.New("config: invalid configuration")
