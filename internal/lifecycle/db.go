// Package lifecycle manages the shared, reference-counted resources
// behind host-visible handles: the database object, engine snapshots,
// iterator cursors, and per-handle iterator objects. It owns the
// ordering guarantees between them: an iterator never outlives its
// snapshot, a snapshot never outlives its database, and the engine
// handle closes only after every dependent resource is gone.
package lifecycle

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/gripdb/grip/internal/refs"
	"github.com/gripdb/grip/pkg/db"
)

// DBObject is the top-level database resource. It wraps an opened
// engine handle and tracks every iterator object open against it so a
// close can cascade before the engine handle goes away.
type DBObject struct {
	refs.Closer

	engine db.Engine
	log    zerolog.Logger

	itrMu   sync.Mutex
	itrList map[*ItrObject]struct{}
}

// NewDBObject wraps an already-opened engine handle. The returned
// object carries the keep-alive reference released by the winning close
// request.
func NewDBObject(engine db.Engine, logger zerolog.Logger) *DBObject {
	d := &DBObject{
		engine:  engine,
		log:     logger,
		itrList: make(map[*ItrObject]struct{}),
	}
	d.InitCloser(nil)
	d.log.Debug().Msg("database resource created")
	return d
}

// Engine exposes the underlying engine handle. Callers hold a counted
// reference to d for the duration of use.
func (d *DBObject) Engine() db.Engine { return d.engine }

// Get reads through to the engine, refusing once a close has been
// requested.
func (d *DBObject) Get(key []byte) ([]byte, error) {
	if d.CloseRequested() {
		return nil, ErrDatabaseClosing
	}
	return d.engine.Get(key)
}

func (d *DBObject) Put(key, value []byte) error {
	if d.CloseRequested() {
		return ErrDatabaseClosing
	}
	return d.engine.Put(key, value)
}

func (d *DBObject) Delete(key []byte) error {
	if d.CloseRequested() {
		return ErrDatabaseClosing
	}
	return d.engine.Delete(key)
}

// addIterator registers an iterator back-reference. Fails once a close
// has been requested: the shutdown cascade has (or will have) copied
// the list, and a late arrival would leak past it.
func (d *DBObject) addIterator(it *ItrObject) error {
	d.itrMu.Lock()
	defer d.itrMu.Unlock()
	if d.CloseRequested() {
		return ErrDatabaseClosing
	}
	d.itrList[it] = struct{}{}
	return nil
}

// removeIterator drops a back-reference. Tolerates an entry already
// gone: the shutdown cascade and the iterator's own close can both
// reach here.
func (d *DBObject) removeIterator(it *ItrObject) {
	d.itrMu.Lock()
	delete(d.itrList, it)
	d.itrMu.Unlock()
}

// openIterators reports the number of registered iterator objects.
// Test use.
func (d *DBObject) openIterators() int {
	d.itrMu.Lock()
	defer d.itrMu.Unlock()
	return len(d.itrList)
}

// Shutdown runs once, on the goroutine that won the close request.
// Every dependent iterator object is force-closed first; waiting for
// each destructor guarantees all engine iterators and snapshots are
// released before the engine handle itself closes.
func (d *DBObject) Shutdown() {
	d.itrMu.Lock()
	itrs := make([]*ItrObject, 0, len(d.itrList))
	for it := range d.itrList {
		itrs = append(itrs, it)
	}
	d.itrMu.Unlock()

	// The list mutex is not held across the close machinery: an
	// iterator's own shutdown takes it to deregister.
	for _, it := range itrs {
		refs.ForceClose(it)
	}

	if err := d.engine.Close(); err != nil {
		d.log.Error().Err(err).Msg("close engine handle")
	}
	d.log.Debug().Int("iterators", len(itrs)).Msg("database resource shut down")
}
