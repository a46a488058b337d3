// Package refs implements the reference counting and close coordination
// shared by every host-visible engine resource: joint lifetime ownership
// across goroutines, destroy-exactly-once at count zero, and a one-shot
// close protocol whose waiters survive the owning object's teardown.
package refs

import "sync/atomic"

// Counted is implemented by any object whose lifetime is owned jointly
// by every holder of a reference.
type Counted interface {
	IncRef() int32
	DecRef() int32
	TryIncRef() bool
}

// Object is the reference-counted base. Embed it by value and call Init
// exactly once before the object is shared. Objects are always handled
// by pointer; copying one after Init is a misuse.
type Object struct {
	count   atomic.Int32
	destroy func()
}

// Init sets the destroy hook. The count starts at zero: the constructor
// must hand the object to at least one reference holder before any
// release can occur.
func (o *Object) Init(destroy func()) {
	o.destroy = destroy
}

func (o *Object) IncRef() int32 {
	return o.count.Add(1)
}

// DecRef releases one reference. The call that observes the transition
// to zero runs the destroy hook as its last action; the hook runs on
// exactly one goroutine and nothing may touch the object afterward.
func (o *Object) DecRef() int32 {
	n := o.count.Add(-1)
	if n < 0 {
		panic("refs: reference count decremented below zero")
	}
	if n == 0 && o.destroy != nil {
		o.destroy()
	}
	return n
}

// TryIncRef acquires a reference only if the object is still live. It
// fails once the count has reached zero, so a resolver racing the final
// release can never resurrect a destroyed object.
func (o *Object) TryIncRef() bool {
	for {
		n := o.count.Load()
		if n <= 0 {
			return false
		}
		if o.count.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// RefCount reports the current count. Test use only; the value is stale
// the moment it returns.
func (o *Object) RefCount() int32 {
	return o.count.Load()
}
