// Package registry allocates the opaque typed handles the host
// environment holds for engine resources, resolves them back to live
// objects, and runs a per-type cleanup exactly once when the host
// releases a handle.
package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a handle is stale, was never allocated,
// or resolves to an object of a different type than requested.
var ErrNotFound = errors.New("registry: handle not found")

// Handle is the opaque token handed to the host. The resource type id
// lives in the high 16 bits, the allocation sequence in the low 48.
type Handle uint64

const seqBits = 48

func (h Handle) typeID() uint16 { return uint16(h >> seqBits) }

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d:%d)", h.typeID(), uint64(h)&(1<<seqBits-1))
}

// CleanupFunc releases the native resource behind a handle the host no
// longer reaches. It must not return before the resource is fully torn
// down.
type CleanupFunc func(obj any)

// ResourceType tags a class of handles and carries its cleanup.
// Types are registered at startup and injected into whoever allocates;
// there is no package-level type table.
type ResourceType struct {
	name    string
	id      uint16
	cleanup CleanupFunc
}

func (rt *ResourceType) Name() string { return rt.name }

type entry struct {
	rt  *ResourceType
	obj any
}

// Registry is safe for concurrent use by any number of goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]entry
	nextID  uint16
	nextSeq uint64
}

func New() *Registry {
	return &Registry{
		entries: make(map[Handle]entry),
		nextID:  1,
		nextSeq: 1,
	}
}

// RegisterType registers a resource type with its cleanup callback.
func (r *Registry) RegisterType(name string, cleanup CleanupFunc) *ResourceType {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt := &ResourceType{name: name, id: r.nextID, cleanup: cleanup}
	r.nextID++
	return rt
}

// Allocate stores obj and returns its handle.
func (r *Registry) Allocate(rt *ResourceType, obj any) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := Handle(uint64(rt.id)<<seqBits | r.nextSeq)
	r.nextSeq++
	r.entries[h] = entry{rt: rt, obj: obj}
	return h
}

// Resolve returns the object behind h, or ErrNotFound if the handle is
// stale or was allocated for a different type.
func (r *Registry) Resolve(h Handle, rt *ResourceType) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[h]
	if !ok || e.rt != rt {
		return nil, ErrNotFound
	}
	return e.obj, nil
}

// Release drops the handle and invokes the type cleanup exactly once.
// Releasing an unknown or already-released handle is a no-op. The
// cleanup runs outside the registry lock: it may block until the
// resource's destructor completes.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	e, ok := r.entries[h]
	if ok {
		delete(r.entries, h)
	}
	r.mu.Unlock()

	if ok {
		e.rt.cleanup(e.obj)
	}
}

// Len reports the number of live handles. Test use.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
