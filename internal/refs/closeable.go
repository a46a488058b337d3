package refs

import (
	"sync"
	"sync/atomic"
)

// CloseState tracks the one-shot close protocol of a Closer. Transitions
// are monotonic: Open -> CloseRequested -> DestructorRunning ->
// DestructorDone, with no reverse or skipped transitions observable by
// waiters.
type CloseState int32

const (
	StateOpen CloseState = iota
	StateCloseRequested
	StateDestructorRunning
	StateDestructorDone
)

// closeGate is the control block shared between a Closer and its
// waiters. It is a separate heap allocation: a goroutine blocked in
// AwaitClose holds only the gate pointer and never touches the owning
// object, which may finish tearing down while the waiter is still
// parked on the condition variable.
type closeGate struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state atomic.Int32
}

func newCloseGate() *closeGate {
	g := &closeGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Closeable is satisfied by embedding Closer. RequestClose and
// AwaitClose accept any such object.
type Closeable interface {
	Counted
	// Shutdown performs type-specific teardown for the winning close
	// requester, while the object is still fully valid.
	Shutdown()
	closeGate() *closeGate
}

// Closer extends Object with the close protocol. Construction adds one
// keep-alive reference that is released only by the winning
// RequestClose, so the object cannot be destroyed before an explicit
// close is requested.
type Closer struct {
	Object
	gate *closeGate
}

// InitCloser sets the destroy hook and takes the keep-alive reference.
// Call exactly once, before the object is shared.
func (c *Closer) InitCloser(destroy func()) {
	c.gate = newCloseGate()
	c.Object.Init(func() { c.runDestructor(destroy) })
	c.IncRef()
}

func (c *Closer) closeGate() *closeGate { return c.gate }

// CloseRequested reports whether a close has been requested. Used by
// resolvers to refuse handles that are already shutting down.
func (c *Closer) CloseRequested() bool {
	return CloseState(c.gate.state.Load()) != StateOpen
}

// runDestructor is invoked by the final DecRef. The keep-alive reference
// guarantees this happens only after a close request, so the state here
// is CloseRequested.
func (c *Closer) runDestructor(destroy func()) {
	g := c.gate
	g.state.Store(int32(StateDestructorRunning))

	if destroy != nil {
		destroy()
	}

	// The broadcast is the last touch: waiters woken here may be the
	// only remaining holders of the gate.
	g.mu.Lock()
	g.state.Store(int32(StateDestructorDone))
	g.cond.Broadcast()
	g.mu.Unlock()
}

// RequestClose performs the Open -> CloseRequested transition. Exactly
// one of any number of concurrent callers returns true; that caller has
// run Shutdown and released the keep-alive reference, which may have
// destroyed the object before this returns. All other callers observe a
// no-op.
func RequestClose(c Closeable) bool {
	g := c.closeGate()
	if !g.state.CompareAndSwap(int32(StateOpen), int32(StateCloseRequested)) {
		return false
	}
	c.Shutdown()
	c.DecRef()
	return true
}

// AwaitClose blocks until the object's destructor has fully completed.
// Safe to call before, during, or after destruction; the wait uses only
// the control block.
func AwaitClose(c Closeable) {
	g := c.closeGate()
	g.mu.Lock()
	for CloseState(g.state.Load()) != StateDestructorDone {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// ForceClose is the registry cleanup composition: request the close
// (winning or not) and wait for the destructor. After it returns the
// engine-side resources of the object are gone.
func ForceClose(c Closeable) {
	RequestClose(c)
	AwaitClose(c)
}
