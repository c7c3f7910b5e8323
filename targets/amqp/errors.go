package amqp

import "errors"

// ErrNilChannel is returned when a sink is constructed without a channel.
var ErrNilChannel = errors.New("amqp: channel is nil")
