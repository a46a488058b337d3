package lifecycle

import "errors"

var (
	// ErrDatabaseClosing is returned when an operation reaches a
	// database resource after its close has been requested.
	ErrDatabaseClosing = errors.New("lifecycle: database is closing")

	// ErrIteratorClosing is the iterator-object equivalent.
	ErrIteratorClosing = errors.New("lifecycle: iterator is closing")
)
