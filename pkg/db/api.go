package db

// Engine represents an opened embedded key-value storage engine. One
// engine handle is shared read-only by any number of snapshots and
// iterators; the engine serializes its own writes.
type Engine interface {
	Writer
	Get(key []byte) ([]byte, error)

	// NewSnapshot creates a point-in-time view of the current engine
	// state. The snapshot must be released exactly once.
	NewSnapshot() (Snapshot, error)

	// NewIterator creates an iterator over the engine, pinned to snap
	// when snap is non-nil. Iterators must be closed after use.
	NewIterator(opts ReadOptions, snap Snapshot) (Iterator, error)

	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// Snapshot is a point-in-time read view. Release frees the engine-side
// state; releasing twice is an error of the calling layer and backends
// may panic on it.
type Snapshot interface {
	Release() error
}

// Iterator provides forward sequential access over a range of key-value
// pairs. An iterator is not safe for concurrent use; callers serialize
// access themselves.
type Iterator interface {
	// First positions the iterator at the first key in range.
	First() bool
	// SeekGE positions the iterator at the first key >= target.
	SeekGE(target []byte) bool
	Next() bool
	Valid() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// ReadOptions carries per-iterator read configuration.
type ReadOptions struct {
	// KeysOnly requests iteration without value materialization where
	// the backend supports it.
	KeysOnly bool
	// LowerBound and UpperBound restrict the iterated range
	// [LowerBound, UpperBound). Nil means unbounded.
	LowerBound []byte
	UpperBound []byte
	// FillCache controls whether iterated blocks populate the block
	// cache on backends that have one.
	FillCache bool
}
