package mongodb

import "errors"

// ErrNilCollection is returned when a sink is constructed without a collection.
var ErrNilCollection = errors.New("mongodb: collection is nil")
