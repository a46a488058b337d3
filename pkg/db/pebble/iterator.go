package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/gripdb/grip/pkg/db"
)

type Iterator struct {
	iter *pebble.Iterator
}

func (p *KVStore) NewIterator(opts db.ReadOptions, snap db.Snapshot) (db.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	iterOpts := &pebble.IterOptions{
		LowerBound: opts.LowerBound,
		UpperBound: opts.UpperBound,
	}

	var (
		iter *pebble.Iterator
		err  error
	)
	if snap != nil {
		ps, ok := snap.(*Snapshot)
		if !ok || ps.snap == nil {
			return nil, ErrSnapshotReleased
		}
		iter, err = ps.snap.NewIter(iterOpts)
	} else {
		iter, err = p.db.NewIter(iterOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("pebble: create iterator: %w", err)
	}
	return &Iterator{iter: iter}, nil
}

func (it *Iterator) First() bool {
	return it.iter.First()
}

func (it *Iterator) SeekGE(target []byte) bool {
	return it.iter.SeekGE(target)
}

func (it *Iterator) Next() bool {
	// If the iterator is un-positioned, position it at the first key
	if !it.iter.Valid() {
		return it.iter.First()
	}
	// Otherwise, move to the next key
	return it.iter.Next()
}

func (it *Iterator) Valid() bool {
	return it.iter.Valid()
}

func (it *Iterator) Key() []byte {
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, ErrIteratorInvalid
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf("pebble: read iterator value: %w", err)
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
