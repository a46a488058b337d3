package lifecycle

import (
	"sync"
	"sync/atomic"

	"github.com/gripdb/grip/internal/refs"
	"github.com/gripdb/grip/pkg/db"
)

// MoveAction selects how a cursor advances.
type MoveAction uint8

const (
	MoveFirst MoveAction = iota
	MoveNext
	MoveSeek
)

// MoveResult is the outcome of one cursor step. Key and Value are
// copies, safe to hold after further moves.
type MoveResult struct {
	OK    bool
	Key   []byte
	Value []byte
	Err   error
}

// Handoff states. The background context touches the engine iterator
// only between a successful idle -> background transition and the
// result publication. The claim itself, every foreground step, and the
// passthrough reads all happen under the cursor mutex, so a claim can
// never land while a foreground access is in flight.
const (
	handoffIdle int32 = iota
	handoffBackground
	handoffReady
)

// IterWrapper is the cursor resource: the live engine iterator plus
// the coordination state for foreground/background access. Counted,
// not closeable; it holds references to the snapshot and database so
// the engine iterator stays valid for as long as the wrapper exists.
type IterWrapper struct {
	refs.Object

	dbRef   refs.Ref[*DBObject]
	snapRef refs.Ref[*SnapshotWrapper]
	iter    db.Iterator

	handoff atomic.Int32
	// mu serializes foreground callers against each other and against
	// handoff claims, and guards result publication; it is never held
	// across a background engine access.
	mu   sync.Mutex
	cond *sync.Cond

	keysOnly        bool
	prefetchStarted atomic.Bool

	// result is the last background move outcome. Written by the
	// background before the word turns result-ready, read by the
	// foreground after observing result-ready.
	result MoveResult
}

// newIterWrapper takes over iter. The returned wrapper has a zero
// count; the caller must acquire a reference before sharing it.
func newIterWrapper(dbo *DBObject, snap *SnapshotWrapper, iter db.Iterator, keysOnly bool) *IterWrapper {
	w := &IterWrapper{iter: iter, keysOnly: keysOnly}
	w.cond = sync.NewCond(&w.mu)
	w.dbRef = refs.Take(dbo)
	w.snapRef = refs.Take(snap)
	w.Init(w.destroy)
	return w
}

func (w *IterWrapper) destroy() {
	if w.iter != nil {
		if err := w.iter.Close(); err != nil {
			w.dbRef.Get().log.Error().Err(err).Msg("close engine iterator")
		}
		w.iter = nil
	}
	w.snapRef.Release()
	w.dbRef.Release()
}

// Valid, Key and Value read the engine iterator's current position.
// They take the same arbitration as Move: a background step in flight
// is waited out first. Key and Value are undefined unless Valid returns
// true; checking is the caller's responsibility.
func (w *IterWrapper) Valid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waitBackground()
	return w.iter.Valid()
}

func (w *IterWrapper) Key() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waitBackground()
	return w.iter.Key()
}

func (w *IterWrapper) Value() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waitBackground()
	return w.iter.Value()
}

// waitBackground blocks until the background context has surrendered
// the engine iterator. Called with mu held.
func (w *IterWrapper) waitBackground() {
	for w.handoff.Load() == handoffBackground {
		w.cond.Wait()
	}
}

// PrefetchStarted reports whether a background handoff has ever
// happened on this cursor.
func (w *IterWrapper) PrefetchStarted() bool { return w.prefetchStarted.Load() }

// Move advances the cursor on the calling goroutine. If a background
// prefetch is in flight it waits for the result; a result already
// waiting is merged when it answers the requested step (a prefetch is
// always a Next) and discarded otherwise.
func (w *IterWrapper) Move(action MoveAction, target []byte) MoveResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.waitBackground()
	if w.handoff.CompareAndSwap(handoffReady, handoffIdle) {
		if action == MoveNext {
			return w.result
		}
		// The engine iterator already sits on the prefetched key;
		// First and Seek reposition it below, so the stale result is
		// simply dropped.
	}
	return w.capture(w.step(action, target))
}

func (w *IterWrapper) step(action MoveAction, target []byte) bool {
	switch action {
	case MoveFirst:
		return w.iter.First()
	case MoveSeek:
		return w.iter.SeekGE(target)
	default:
		return w.iter.Next()
	}
}

func (w *IterWrapper) capture(ok bool) MoveResult {
	res := MoveResult{OK: ok}
	if !ok {
		return res
	}
	res.Key = w.iter.Key()
	if !w.keysOnly {
		res.Value, res.Err = w.iter.Value()
	}
	return res
}

// beginHandoff claims the background slot: idle -> background-owns.
// Fails while a prefetch is in flight or its result is unconsumed. The
// mutex makes the claim atomic with the foreground's engine accesses: a
// claim can never land while a Move or a passthrough read is mid-step,
// so the worker never enters the iterator concurrently with them.
func (w *IterWrapper) beginHandoff() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.handoff.CompareAndSwap(handoffIdle, handoffBackground) {
		return false
	}
	w.prefetchStarted.CompareAndSwap(false, true)
	return true
}

// cancelHandoff returns a claimed slot to idle without touching the
// engine iterator, waking any foreground waiter.
func (w *IterWrapper) cancelHandoff() {
	w.mu.Lock()
	w.handoff.Store(handoffIdle)
	w.cond.Broadcast()
	w.mu.Unlock()
}

// backgroundMove advances the engine iterator from a worker goroutine
// and publishes the result. The caller owns the handoff.
func (w *IterWrapper) backgroundMove(action MoveAction, target []byte) {
	res := w.capture(w.step(action, target))

	w.mu.Lock()
	w.result = res
	w.handoff.Store(handoffReady)
	w.cond.Broadcast()
	w.mu.Unlock()
}
