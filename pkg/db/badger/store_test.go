package badger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gripdb/grip/pkg/db"
)

func newTestStore(t *testing.T) *KVStore {
	store, err := NewKVStore(Options{InMemory: true})
	require.NoError(t, err)
	return store
}

func TestKVStore(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.Engine)
	}{
		{
			name: "basic_put_get",
			fn:   testBasicPutGet,
		},
		{
			name: "delete_operations",
			fn:   testDelete,
		},
		{
			name: "store_closure",
			fn:   testStoreClosure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t)
			defer store.Close()

			tc.fn(t, store)
		})
	}
}

func testBasicPutGet(t *testing.T, store db.Engine) {
	key := []byte("test-key")
	value := []byte("test-value")

	err := store.Put(key, value)
	require.NoError(t, err)

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	_, err = store.Get([]byte("non-existent"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testDelete(t *testing.T, store db.Engine) {
	key := []byte("delete-test")

	err := store.Put(key, []byte("to-be-deleted"))
	require.NoError(t, err)

	err = store.Delete(key)
	require.NoError(t, err)

	_, err = store.Get(key)
	assert.ErrorIs(t, err, db.ErrNotFound)

	err = store.Delete([]byte("non-existent"))
	assert.NoError(t, err)
}

func testStoreClosure(t *testing.T, store db.Engine) {
	err := store.Close()
	require.NoError(t, err)

	_, err = store.Get([]byte("key"))
	assert.ErrorIs(t, err, ErrClosed)

	err = store.Put([]byte("key"), []byte("value"))
	assert.ErrorIs(t, err, ErrClosed)

	err = store.Delete([]byte("key"))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = store.NewSnapshot()
	assert.ErrorIs(t, err, ErrClosed)

	err = store.Close()
	assert.NoError(t, err)
}

func TestSnapshotIsolation(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k1"), []byte("before")))

	snap, err := store.NewSnapshot()
	require.NoError(t, err)

	// Mutations after the snapshot stay invisible through it.
	require.NoError(t, store.Put([]byte("k1"), []byte("after")))
	require.NoError(t, store.Put([]byte("k2"), []byte("new")))

	iter, err := store.NewIterator(db.ReadOptions{}, snap)
	require.NoError(t, err)

	require.True(t, iter.First())
	assert.Equal(t, []byte("k1"), iter.Key())
	val, err := iter.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("before"), val)

	assert.False(t, iter.Next())

	require.NoError(t, iter.Close())
	require.NoError(t, snap.Release())
	assert.ErrorIs(t, snap.Release(), ErrSnapshotReleased)
}

func TestIteratorBounds(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	for i := 0; i < 10; i++ {
		key := []byte(fmt.Sprintf("k%d", i))
		require.NoError(t, store.Put(key, []byte("v")))
	}

	iter, err := store.NewIterator(db.ReadOptions{
		LowerBound: []byte("k3"),
		UpperBound: []byte("k7"),
	}, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ok := iter.First(); ok; ok = iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"k3", "k4", "k5", "k6"}, keys)

	assert.True(t, iter.SeekGE([]byte("k5")))
	assert.Equal(t, []byte("k5"), iter.Key())
}

func TestKeysOnlyIteration(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.Put([]byte("a"), []byte("1")))
	require.NoError(t, store.Put([]byte("b"), []byte("2")))

	iter, err := store.NewIterator(db.ReadOptions{KeysOnly: true}, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ok := iter.First(); ok; ok = iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}
