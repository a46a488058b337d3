package lifecycle

import (
	"github.com/gripdb/grip/internal/refs"
	"github.com/gripdb/grip/pkg/db"
)

// SnapshotWrapper owns an engine snapshot shared by any number of
// cursors. It has no close protocol: the last reference dropped, in
// whatever order, releases the engine snapshot exactly once. The db
// reference keeps the engine handle valid for that release.
type SnapshotWrapper struct {
	refs.Object

	dbRef refs.Ref[*DBObject]
	snap  db.Snapshot
}

// NewSnapshotWrapper takes over snap. The returned wrapper has a zero
// count; the caller must acquire a reference before sharing it.
func NewSnapshotWrapper(dbo *DBObject, snap db.Snapshot) *SnapshotWrapper {
	s := &SnapshotWrapper{snap: snap}
	s.dbRef = refs.Take(dbo)
	s.Init(s.destroy)
	return s
}

// Snapshot returns the engine snapshot. Callers hold a counted
// reference to s for the duration of use.
func (s *SnapshotWrapper) Snapshot() db.Snapshot { return s.snap }

func (s *SnapshotWrapper) destroy() {
	if s.snap != nil {
		dbo := s.dbRef.Get()
		if err := s.snap.Release(); err != nil {
			dbo.log.Error().Err(err).Msg("release engine snapshot")
		}
		s.snap = nil
	}
	s.dbRef.Release()
}
