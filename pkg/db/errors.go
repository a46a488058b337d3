package db

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	// Backends translate their own not-found sentinel to this one.
	ErrNotFound = errors.New("db: key not found")
)
