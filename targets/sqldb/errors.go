package sqldb

import "errors"

// ErrNilDB is returned when a sink is constructed without a database handle.
var ErrNilDB = errors.New("sqldb: database handle is nil")
