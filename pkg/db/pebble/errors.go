package pebble

import "errors"

var (
	ErrClosed           = errors.New("pebble: store is closed")
	ErrIteratorInvalid  = errors.New("pebble: iterator is not valid")
	ErrSnapshotReleased = errors.New("pebble: snapshot already released")
)
