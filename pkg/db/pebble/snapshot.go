package pebble

import (
	"github.com/cockroachdb/pebble"

	"github.com/gripdb/grip/pkg/db"
)

// Snapshot pins a point-in-time pebble view. Iterators created against
// it keep reading that view regardless of later writes.
type Snapshot struct {
	snap *pebble.Snapshot
}

func (p *KVStore) NewSnapshot() (db.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}
	return &Snapshot{snap: p.db.NewSnapshot()}, nil
}

func (s *Snapshot) Release() error {
	if s.snap == nil {
		return ErrSnapshotReleased
	}
	err := s.snap.Close()
	s.snap = nil
	return err
}
