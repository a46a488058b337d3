package lifecycle

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gripdb/grip/pkg/db"
)

// fakeEngine records lifecycle events so tests can assert teardown
// ordering, and its iterators flag overlapping access from two
// goroutines.
type fakeEngine struct {
	mu     sync.Mutex
	data   map[string]string
	events []string

	closed atomic.Bool
	// overlap trips when two goroutines drive the same iterator at
	// once.
	overlap atomic.Bool

	// gateSteps, when set, parks every iterator step: entering First or
	// Next signals stepEntered and blocks until stepGate closes. Lets
	// tests hold a step open while probing concurrent access.
	gateSteps   atomic.Bool
	stepEntered chan struct{}
	stepGate    chan struct{}
}

func newFakeEngine(pairs map[string]string) *fakeEngine {
	data := make(map[string]string, len(pairs))
	for k, v := range pairs {
		data[k] = v
	}
	return &fakeEngine{data: data}
}

func (e *fakeEngine) event(s string) {
	e.mu.Lock()
	e.events = append(e.events, s)
	e.mu.Unlock()
}

func (e *fakeEngine) eventLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	copy(out, e.events)
	return out
}

func (e *fakeEngine) Get(key []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.data[string(key)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return []byte(v), nil
}

func (e *fakeEngine) Put(key, value []byte) error {
	e.mu.Lock()
	e.data[string(key)] = string(value)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) Delete(key []byte) error {
	e.mu.Lock()
	delete(e.data, string(key))
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) NewSnapshot() (db.Snapshot, error) {
	e.mu.Lock()
	frozen := make(map[string]string, len(e.data))
	for k, v := range e.data {
		frozen[k] = v
	}
	e.mu.Unlock()
	e.event("snap_take")
	return &fakeSnapshot{engine: e, data: frozen}, nil
}

func (e *fakeEngine) NewIterator(opts db.ReadOptions, snap db.Snapshot) (db.Iterator, error) {
	source := e.data
	if snap != nil {
		source = snap.(*fakeSnapshot).data
	}
	e.mu.Lock()
	keys := make([]string, 0, len(source))
	for k := range source {
		keys = append(keys, k)
	}
	e.mu.Unlock()
	sort.Strings(keys)
	e.event("iter_open")
	return &fakeIterator{engine: e, data: source, keys: keys, idx: -1}, nil
}

func (e *fakeEngine) Close() error {
	e.closed.Store(true)
	e.event("engine_close")
	return nil
}

type fakeSnapshot struct {
	engine   *fakeEngine
	data     map[string]string
	released atomic.Int32
}

func (s *fakeSnapshot) Release() error {
	if s.released.Add(1) > 1 {
		panic("fake snapshot released twice")
	}
	s.engine.event("snap_release")
	return nil
}

type fakeIterator struct {
	engine *fakeEngine
	data   map[string]string
	keys   []string
	idx    int
	inUse  atomic.Int32
}

// enter/leave bracket every engine access; a second concurrent entry
// marks the overlap flag the handoff protocol is supposed to prevent.
func (it *fakeIterator) enter() {
	if it.inUse.Add(1) != 1 {
		it.engine.overlap.Store(true)
	}
}

func (it *fakeIterator) leave() { it.inUse.Add(-1) }

func (it *fakeIterator) park() {
	if !it.engine.gateSteps.Load() {
		return
	}
	select {
	case it.engine.stepEntered <- struct{}{}:
	default:
	}
	<-it.engine.stepGate
}

func (it *fakeIterator) First() bool {
	it.enter()
	defer it.leave()
	it.park()
	it.idx = 0
	return it.idx < len(it.keys)
}

func (it *fakeIterator) SeekGE(target []byte) bool {
	it.enter()
	defer it.leave()
	it.idx = sort.SearchStrings(it.keys, string(target))
	return it.idx < len(it.keys)
}

func (it *fakeIterator) Next() bool {
	it.enter()
	defer it.leave()
	it.park()
	if it.idx < 0 {
		it.idx = 0
	} else {
		it.idx++
	}
	return it.idx < len(it.keys)
}

func (it *fakeIterator) Valid() bool {
	return it.idx >= 0 && it.idx < len(it.keys)
}

func (it *fakeIterator) Key() []byte {
	it.enter()
	defer it.leave()
	return []byte(it.keys[it.idx])
}

func (it *fakeIterator) Value() ([]byte, error) {
	it.enter()
	defer it.leave()
	return []byte(it.data[it.keys[it.idx]]), nil
}

func (it *fakeIterator) Close() error {
	it.engine.event("iter_close")
	return nil
}
