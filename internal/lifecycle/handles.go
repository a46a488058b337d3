package lifecycle

import (
	"github.com/rs/zerolog"

	"github.com/gripdb/grip/internal/refs"
	"github.com/gripdb/grip/internal/registry"
	"github.com/gripdb/grip/pkg/db"
)

// Types binds the lifecycle resource types into a handle registry.
// Built once at startup and passed to whoever opens resources; there is
// no package-level registration.
type Types struct {
	reg *registry.Registry
	db  *registry.ResourceType
	itr *registry.ResourceType
}

// RegisterTypes installs the database and iterator resource types. The
// cleanup callbacks perform a forced close: request the close, then
// wait for the destructor, so a released handle never leaves a live
// engine resource behind.
func RegisterTypes(reg *registry.Registry) *Types {
	t := &Types{reg: reg}
	t.db = reg.RegisterType("grip_db", func(obj any) {
		refs.ForceClose(obj.(*DBObject))
	})
	t.itr = reg.RegisterType("grip_itr", func(obj any) {
		refs.ForceClose(obj.(*ItrObject))
	})
	return t
}

func (t *Types) Registry() *registry.Registry { return t.reg }

// OpenDatabase wraps an opened engine handle in a database resource and
// allocates its host handle.
func (t *Types) OpenDatabase(engine db.Engine, logger zerolog.Logger) registry.Handle {
	return t.reg.Allocate(t.db, NewDBObject(engine, logger))
}

// ResolveDB returns a counted reference to the database behind h, or
// registry.ErrNotFound when the handle is stale, mistyped, or the
// database is already closing.
func (t *Types) ResolveDB(h registry.Handle) (refs.Ref[*DBObject], error) {
	obj, err := t.reg.Resolve(h, t.db)
	if err != nil {
		return refs.Ref[*DBObject]{}, err
	}
	d := obj.(*DBObject)
	if !d.TryIncRef() {
		return refs.Ref[*DBObject]{}, registry.ErrNotFound
	}
	if d.CloseRequested() {
		d.DecRef()
		return refs.Ref[*DBObject]{}, registry.ErrNotFound
	}
	return refs.Adopt(d), nil
}

// OpenIterator creates an iterator object against the database behind
// dbHandle and allocates its host handle.
func (t *Types) OpenIterator(dbHandle registry.Handle, keysOnly bool, readOpts db.ReadOptions) (registry.Handle, error) {
	dbRef, err := t.ResolveDB(dbHandle)
	if err != nil {
		return 0, err
	}
	defer dbRef.Release()

	o, err := NewItrObject(dbRef.Get(), keysOnly, readOpts)
	if err != nil {
		return 0, err
	}
	return t.reg.Allocate(t.itr, o), nil
}

// ResolveItr returns a counted reference to the iterator behind h.
// Normal resolution refuses an iterator whose close has been requested;
// closing mode permits lookup mid-shutdown without re-triggering
// another close.
func (t *Types) ResolveItr(h registry.Handle, closing bool) (refs.Ref[*ItrObject], error) {
	obj, err := t.reg.Resolve(h, t.itr)
	if err != nil {
		return refs.Ref[*ItrObject]{}, err
	}
	o := obj.(*ItrObject)
	if !o.TryIncRef() {
		return refs.Ref[*ItrObject]{}, registry.ErrNotFound
	}
	if !closing && o.CloseRequested() {
		o.DecRef()
		return refs.Ref[*ItrObject]{}, registry.ErrNotFound
	}
	return refs.Adopt(o), nil
}

// Release drops a host handle, forcing the resource closed. The host's
// unreachability callback and explicit close both land here.
func (t *Types) Release(h registry.Handle) {
	t.reg.Release(h)
}
