package badger

import (
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/gripdb/grip/pkg/db"
)

// Options configures a badger-backed engine.
type Options struct {
	Path string
	// InMemory runs badger without touching disk. Used by tests.
	InMemory   bool
	SyncWrites bool
}

func DefaultOptions(path string) Options {
	return Options{
		Path:       path,
		SyncWrites: true,
	}
}

type KVStore struct {
	db     *badger.DB
	closed bool
	mu     sync.RWMutex
}

func NewKVStore(opts Options) (*KVStore, error) {
	bOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLoggingLevel(badger.ERROR)
	if opts.InMemory {
		bOpts = bOpts.WithDir("").WithValueDir("")
	}

	bdb, err := badger.Open(bOpts)
	if err != nil {
		return nil, err
	}

	return &KVStore{db: bdb}, nil
}

func (b *KVStore) Get(key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *KVStore) Put(key, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *KVStore) Delete(key []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *KVStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
