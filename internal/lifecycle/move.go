package lifecycle

import (
	"sync/atomic"

	"github.com/gripdb/grip/internal/refs"
)

// MoveTask is the background move unit handed to the worker pool. One
// task is cached per iterator object and re-armed for each prefetch
// instead of allocating per step. While armed it holds its own counted
// cursor reference, so the engine iterator outlives the worker's
// access no matter what the foreground does meanwhile.
type MoveTask struct {
	cursor refs.Ref[*IterWrapper]
	action MoveAction
	target []byte

	canceled atomic.Bool
	queued   atomic.Bool
	// done is closed when the current dispatch is disarmed; a detach
	// racing a live worker waits on it.
	done chan struct{}
}

// arm prepares one dispatch. Called with the iterator's move lock held.
func (t *MoveTask) arm(cur *IterWrapper, action MoveAction, target []byte) {
	t.cursor = refs.Take(cur)
	t.action = action
	t.target = target
	t.done = make(chan struct{})
	t.queued.Store(true)
}

// disarm ends a dispatch: drops the cursor reference and releases any
// waiter. Exactly one disarm per arm, by whichever side abandons or
// completes the dispatch.
func (t *MoveTask) disarm() {
	done := t.done
	// The cursor reference goes first: once queued reads false, a
	// detacher may let the engine handle close, so no reference to the
	// cursor can remain on the worker side by then.
	t.cursor.Release()
	t.queued.Store(false)
	close(done)
}

// Execute runs on a pool worker. A canceled dispatch surrenders the
// handoff without touching the engine iterator.
func (t *MoveTask) Execute() {
	defer t.disarm()

	cur := t.cursor.Get()
	if t.canceled.Load() {
		cur.cancelHandoff()
		return
	}
	cur.backgroundMove(t.action, t.target)
}
