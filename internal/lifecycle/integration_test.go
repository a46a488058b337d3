package lifecycle

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gripdb/grip/internal/registry"
	"github.com/gripdb/grip/internal/worker"
	"github.com/gripdb/grip/pkg/db"
	pebblestore "github.com/gripdb/grip/pkg/db/pebble"
)

// The fake engine covers ordering; this exercises the same lifecycle
// against a real pebble store.
func TestLifecycleOverPebble(t *testing.T) {
	const keys = 50

	engine, err := pebblestore.NewKVStore(pebblestore.DefaultOptions(t.TempDir()))
	require.NoError(t, err)

	for i := 0; i < keys; i++ {
		k := []byte(fmt.Sprintf("key-%04d", i))
		require.NoError(t, engine.Put(k, []byte(fmt.Sprintf("value-%04d", i))))
	}

	types := RegisterTypes(registry.New())
	pool := worker.New(2, 8, zerolog.Nop())
	defer pool.Close()

	dbHandle := types.OpenDatabase(engine, zerolog.Nop())

	h, err := types.OpenIterator(dbHandle, false, db.ReadOptions{})
	require.NoError(t, err)
	ref, err := types.ResolveItr(h, false)
	require.NoError(t, err)
	itr := ref.Get()

	// The iterator is pinned to its creation-time snapshot: later
	// writes through the database resource stay invisible to it.
	dbRef, err := types.ResolveDB(dbHandle)
	require.NoError(t, err)
	require.NoError(t, dbRef.Get().Put([]byte("key-9999"), []byte("late")))
	dbRef.Release()

	count := 0
	res, err := itr.Move(MoveFirst, nil)
	require.NoError(t, err)
	for res.OK {
		require.NoError(t, res.Err)
		assert.Equal(t, fmt.Sprintf("key-%04d", count), string(res.Key))
		assert.Equal(t, fmt.Sprintf("value-%04d", count), string(res.Value))
		count++
		require.NoError(t, itr.Prefetch(pool))
		res, err = itr.Move(MoveNext, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, keys, count)

	ref.Release()
	types.Release(h)
	types.Release(dbHandle)
	assert.Equal(t, 0, types.Registry().Len())

	// The cascade already closed the engine.
	_, err = engine.Get([]byte("key-0000"))
	assert.ErrorIs(t, err, pebblestore.ErrClosed)
}
