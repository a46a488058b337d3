package badger

import (
	"bytes"

	"github.com/dgraph-io/badger/v4"

	"github.com/gripdb/grip/pkg/db"
)

// Iterator wraps a badger iterator. Badger has no native upper bound on
// iterators, so the bound from ReadOptions is enforced here; a key at or
// past the upper bound reads as exhausted.
type Iterator struct {
	iter *badger.Iterator
	// txn is owned by the iterator only when it was not created from a
	// snapshot; an owned txn is discarded on Close.
	txn        *badger.Txn
	ownsTxn    bool
	lowerBound []byte
	upperBound []byte
	positioned bool
}

func (b *KVStore) NewIterator(opts db.ReadOptions, snap db.Snapshot) (db.Iterator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	var (
		txn     *badger.Txn
		ownsTxn bool
	)
	if snap != nil {
		bs, ok := snap.(*Snapshot)
		if !ok || bs.txn == nil {
			return nil, ErrSnapshotReleased
		}
		txn = bs.txn
	} else {
		txn = b.db.NewTransaction(false)
		ownsTxn = true
	}

	iterOpts := badger.DefaultIteratorOptions
	iterOpts.PrefetchValues = !opts.KeysOnly

	return &Iterator{
		iter:       txn.NewIterator(iterOpts),
		txn:        txn,
		ownsTxn:    ownsTxn,
		lowerBound: opts.LowerBound,
		upperBound: opts.UpperBound,
	}, nil
}

func (it *Iterator) First() bool {
	if it.lowerBound != nil {
		it.iter.Seek(it.lowerBound)
	} else {
		it.iter.Rewind()
	}
	it.positioned = true
	return it.Valid()
}

func (it *Iterator) SeekGE(target []byte) bool {
	if it.lowerBound != nil && bytes.Compare(target, it.lowerBound) < 0 {
		target = it.lowerBound
	}
	it.iter.Seek(target)
	it.positioned = true
	return it.Valid()
}

func (it *Iterator) Next() bool {
	if !it.positioned {
		return it.First()
	}
	if !it.iter.Valid() {
		return false
	}
	it.iter.Next()
	return it.Valid()
}

func (it *Iterator) Valid() bool {
	if !it.iter.Valid() {
		return false
	}
	if it.upperBound == nil {
		return true
	}
	return bytes.Compare(it.iter.Item().Key(), it.upperBound) < 0
}

func (it *Iterator) Key() []byte {
	return it.iter.Item().KeyCopy(nil)
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.Valid() {
		return nil, ErrIteratorInvalid
	}
	return it.iter.Item().ValueCopy(nil)
}

func (it *Iterator) Close() error {
	it.iter.Close()
	if it.ownsTxn {
		it.txn.Discard()
	}
	return nil
}
