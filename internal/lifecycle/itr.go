package lifecycle

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gripdb/grip/internal/refs"
	"github.com/gripdb/grip/internal/worker"
	"github.com/gripdb/grip/pkg/db"
)

// ItrObject is the host-visible iterator resource. It pins the cursor,
// the snapshot, and the database through counted references and is
// registered in the database's back-reference list so a database close
// cascades here first.
type ItrObject struct {
	refs.Closer

	dbRef   refs.Ref[*DBObject]
	snapRef refs.Ref[*SnapshotWrapper]
	cursor  refs.Ref[*IterWrapper]

	keysOnly bool
	readOpts db.ReadOptions

	// moveMu serializes prefetch scheduling against the shutdown-side
	// detach; reuseMove is the cached background task.
	moveMu    sync.Mutex
	reuseMove atomic.Pointer[MoveTask]
}

// NewItrObject takes a fresh engine snapshot against the database's
// current state, builds the cursor, and registers the iterator in the
// database's back-reference list.
func NewItrObject(dbo *DBObject, keysOnly bool, readOpts db.ReadOptions) (*ItrObject, error) {
	if dbo.CloseRequested() {
		return nil, ErrDatabaseClosing
	}

	engSnap, err := dbo.Engine().NewSnapshot()
	if err != nil {
		return nil, fmt.Errorf("take engine snapshot: %w", err)
	}
	snap := NewSnapshotWrapper(dbo, engSnap)
	snap.IncRef() // constructor's reference, dropped after wiring

	readOpts.KeysOnly = keysOnly
	iter, err := dbo.Engine().NewIterator(readOpts, engSnap)
	if err != nil {
		snap.DecRef()
		return nil, fmt.Errorf("create engine iterator: %w", err)
	}
	cur := newIterWrapper(dbo, snap, iter, keysOnly)
	cur.IncRef()

	o := &ItrObject{
		keysOnly: keysOnly,
		readOpts: readOpts,
	}
	o.dbRef = refs.Take(dbo)
	o.snapRef = refs.Take(snap)
	o.cursor = refs.Take(cur)
	o.InitCloser(o.destroy)

	snap.DecRef()
	cur.DecRef()

	if err := dbo.addIterator(o); err != nil {
		// Lost the race against a database close; unwind through the
		// normal close path so the cursor and snapshot release.
		refs.RequestClose(o)
		return nil, err
	}
	dbo.log.Debug().Bool("keys_only", keysOnly).Msg("iterator resource created")
	return o, nil
}

// Cursor returns the cursor resource. Callers hold a counted reference
// to o for the duration of use.
func (o *ItrObject) Cursor() *IterWrapper { return o.cursor.Get() }

// Move advances the cursor on the calling goroutine, merging any
// pending background result.
func (o *ItrObject) Move(action MoveAction, target []byte) (MoveResult, error) {
	if o.CloseRequested() {
		return MoveResult{}, ErrIteratorClosing
	}
	return o.cursor.Get().Move(action, target), nil
}

// Prefetch hands the next step to a background worker. A no-op when a
// prefetch is already in flight or its result is still unconsumed.
func (o *ItrObject) Prefetch(pool *worker.Pool) error {
	o.moveMu.Lock()
	defer o.moveMu.Unlock()

	if o.CloseRequested() {
		return ErrIteratorClosing
	}
	cur := o.cursor.Get()
	if !cur.beginHandoff() {
		return nil
	}

	t := o.reuseMove.Load()
	if t == nil {
		t = &MoveTask{}
		o.reuseMove.Store(t)
	} else if t.queued.Load() {
		// The previous dispatch published its result (the handoff is
		// ours) but its worker may still be unwinding; re-arming races
		// that bookkeeping.
		<-t.done
	}
	t.arm(cur, MoveNext, nil)

	if err := pool.Submit(t); err != nil {
		t.disarm()
		cur.cancelHandoff()
		return err
	}
	return nil
}

// ReleaseReuseMove detaches the cached background task. Returns false
// when no task was ever scheduled. A dispatch still armed is canceled
// and waited out, so after this returns no worker holds the cursor.
func (o *ItrObject) ReleaseReuseMove() bool {
	o.moveMu.Lock()
	t := o.reuseMove.Swap(nil)
	if t != nil {
		t.canceled.Store(true)
	}
	o.moveMu.Unlock()

	if t == nil {
		return false
	}
	if t.queued.Load() {
		<-t.done
	}
	return true
}

// Shutdown runs once, on the goroutine that won the close request. The
// background task is detached first so no worker advances a cursor
// whose owner is going away; then the database forgets this iterator.
func (o *ItrObject) Shutdown() {
	o.ReleaseReuseMove()
	if dbo := o.dbRef.Get(); dbo != nil {
		dbo.removeIterator(o)
	}
}

func (o *ItrObject) destroy() {
	o.cursor.Release()
	o.snapRef.Release()
	o.dbRef.Release()
}
