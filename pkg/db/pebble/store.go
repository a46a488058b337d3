package pebble

import (
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/gripdb/grip/pkg/db"
)

// Options configures a pebble-backed engine.
type Options struct {
	Path string
	// CacheSize is the block cache size in bytes.
	CacheSize int64
	// MemTableSize is the size of a single memtable in bytes.
	MemTableSize uint64
}

func DefaultOptions(path string) Options {
	return Options{
		Path:         path,
		CacheSize:    64 * 1024 * 1024, // 64MB
		MemTableSize: 32 * 1024 * 1024, // 32MB
	}
}

type KVStore struct {
	db     *pebble.DB
	closed bool
	mu     sync.RWMutex
}

func NewKVStore(opts Options) (*KVStore, error) {
	pOpts := &pebble.Options{
		Cache:        pebble.NewCache(opts.CacheSize),
		MemTableSize: opts.MemTableSize,
	}

	pdb, err := pebble.Open(opts.Path, pOpts)
	if err != nil {
		return nil, err
	}

	return &KVStore{db: pdb}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
