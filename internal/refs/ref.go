package refs

// Ref is a scoped counted reference to a shared object. Take acquires,
// Release drops. A Ref never shares its count contribution: copies are
// made only through Clone, and retargeting only through Assign, so every
// live Ref accounts for exactly one reference. The zero value is empty.
type Ref[T Counted] struct {
	obj  T
	held bool
}

// Take acquires a new counted reference to obj.
func Take[T Counted](obj T) Ref[T] {
	obj.IncRef()
	return Ref[T]{obj: obj, held: true}
}

// Adopt wraps a reference the caller already acquired (for example via
// TryIncRef) without incrementing again. Releasing the returned Ref
// drops that reference.
func Adopt[T Counted](obj T) Ref[T] {
	return Ref[T]{obj: obj, held: true}
}

// Get returns the referenced object, or the zero value for an empty Ref.
func (r *Ref[T]) Get() T {
	return r.obj
}

func (r *Ref[T]) Held() bool {
	return r.held
}

// Assign retargets the Ref. The new target is acquired before the old
// one is released, so a cascading destroy of the old target can never
// reach an unreferenced new target.
func (r *Ref[T]) Assign(obj T) {
	obj.IncRef()
	if r.held {
		r.obj.DecRef()
	}
	r.obj = obj
	r.held = true
}

// Release drops the reference. Idempotent: releasing an empty or
// already-released Ref is a no-op. The drop may destroy the object.
func (r *Ref[T]) Release() {
	if !r.held {
		return
	}
	obj := r.obj
	var zero T
	r.obj = zero
	r.held = false
	obj.DecRef()
}

// Clone returns an independent Ref to the same object, contributing its
// own count.
func (r *Ref[T]) Clone() Ref[T] {
	if !r.held {
		return Ref[T]{}
	}
	return Take(r.obj)
}
