package badger

import "errors"

var (
	ErrClosed           = errors.New("badger: store is closed")
	ErrIteratorInvalid  = errors.New("badger: iterator is not valid")
	ErrSnapshotReleased = errors.New("badger: snapshot already released")
)
