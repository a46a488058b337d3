package badger

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/gripdb/grip/pkg/db"
)

// Snapshot is a read-only badger transaction standing in for an engine
// snapshot: it reads the database at the version current when it was
// created. Iterators pinned to it must be closed before Release.
type Snapshot struct {
	txn *badger.Txn
}

func (b *KVStore) NewSnapshot() (db.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}
	return &Snapshot{txn: b.db.NewTransaction(false)}, nil
}

func (s *Snapshot) Release() error {
	if s.txn == nil {
		return ErrSnapshotReleased
	}
	s.txn.Discard()
	s.txn = nil
	return nil
}
