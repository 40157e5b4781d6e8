package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/lexkv/pkg/db"
)

// RunEngine exercises the raw db.KVStore contract: batches, snapshots and
// their iterators, without the db.DB layer on top.
func RunEngine(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{name: "basic_batch_operations", fn: testBasicBatchOperations},
		{name: "batch_commit_closure", fn: testBatchCommitAndClose},
		{name: "multiple_batches", fn: testMultipleBatches},
		{name: "full_range_iteration", fn: testFullRangeIteration},
		{name: "bounded_range_iteration", fn: testBoundedRangeIteration},
		{name: "reverse_iteration", fn: testReverseIteration},
		{name: "iterator_validity", fn: testIteratorValidity},
		{name: "closed_store", fn: testClosedStore},
		{name: "use_after_close", fn: testUseAfterClose},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			t.Cleanup(func() { assert.NoError(t, store.Close()) })

			tc.fn(t, store)
		})
	}
}

func fill(t *testing.T, store db.KVStore, data map[string]string) {
	t.Helper()
	for k, v := range data {
		require.NoError(t, store.Put([]byte(k), []byte(v)))
	}
}

func iterate(t *testing.T, store db.KVStore, start, end []byte, opts db.ReadOptions) []string {
	t.Helper()
	snap, err := store.NewSnapshot()
	require.NoError(t, err)
	defer snap.Close() //nolint:errcheck

	iter, err := snap.NewIterator(start, end, opts)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var out []string
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)
		out = append(out, string(iter.Key())+"="+string(value))
	}
	return out
}

func testBasicBatchOperations(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	defer batch.Close() //nolint:errcheck

	keys := [][]byte{[]byte("key1"), []byte("key2"), []byte("key3")}
	values := [][]byte{[]byte("value1"), []byte("value2"), []byte("value3")}

	for i := range keys {
		require.NoError(t, batch.Put(keys[i], values[i]))
	}

	// Delete one key in the same batch
	require.NoError(t, batch.Delete(keys[1]))

	// Nothing is visible before the commit
	_, err := store.Get(keys[0])
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, batch.Commit(false))

	val1, err := store.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, values[0], val1)

	_, err = store.Get(keys[1])
	assert.ErrorIs(t, err, db.ErrNotFound)

	val3, err := store.Get(keys[2])
	require.NoError(t, err)
	assert.Equal(t, values[2], val3)
}

func testBatchCommitAndClose(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Commit(true))

	assert.ErrorIs(t, batch.Commit(true), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Put([]byte("other"), []byte("value")), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("key")), db.ErrBatchDone)
	assert.NoError(t, batch.Close())

	value, err := store.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	// A closed batch is discarded
	discarded := store.NewBatch()
	require.NoError(t, discarded.Put([]byte("dropped"), []byte("value")))
	require.NoError(t, discarded.Close())
	assert.ErrorIs(t, discarded.Commit(false), db.ErrBatchDone)
	_, err = store.Get([]byte("dropped"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testMultipleBatches(t *testing.T, store db.KVStore) {
	batch1 := store.NewBatch()
	batch2 := store.NewBatch()
	defer batch1.Close() //nolint:errcheck
	defer batch2.Close() //nolint:errcheck

	require.NoError(t, batch1.Put([]byte("key1"), []byte("value1")))
	require.NoError(t, batch2.Put([]byte("key2"), []byte("value2")))
	require.NoError(t, batch2.Put([]byte("key1"), []byte("overwritten")))

	require.NoError(t, batch1.Commit(false))
	require.NoError(t, batch2.Commit(false))

	val1, err := store.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("overwritten"), val1)

	val2, err := store.Get([]byte("key2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value2"), val2)
}

func testFullRangeIteration(t *testing.T, store db.KVStore) {
	fill(t, store, map[string]string{
		"a": "value-a",
		"b": "value-b",
		"c": "value-c",
		"d": "value-d",
	})

	got := iterate(t, store, nil, nil, db.ReadOptions{})
	assert.Equal(t, []string{"a=value-a", "b=value-b", "c=value-c", "d=value-d"}, got)
}

func testBoundedRangeIteration(t *testing.T, store db.KVStore) {
	fill(t, store, map[string]string{
		"a": "value-a",
		"b": "value-b",
		"c": "value-c",
		"d": "value-d",
		"e": "value-e",
	})

	got := iterate(t, store, []byte("b"), []byte("e"), db.ReadOptions{})
	assert.Equal(t, []string{"b=value-b", "c=value-c", "d=value-d"}, got)

	got = iterate(t, store, []byte("bb"), nil, db.ReadOptions{})
	assert.Equal(t, []string{"c=value-c", "d=value-d", "e=value-e"}, got)

	got = iterate(t, store, nil, []byte("b"), db.ReadOptions{})
	assert.Equal(t, []string{"a=value-a"}, got)

	assert.Empty(t, iterate(t, store, []byte("x"), nil, db.ReadOptions{}))
}

func testReverseIteration(t *testing.T, store db.KVStore) {
	fill(t, store, map[string]string{
		"a": "1",
		"b": "2",
		"c": "3",
		"d": "4",
	})

	reverse := db.ReadOptions{Reverse: true}
	assert.Equal(t, []string{"d=4", "c=3", "b=2", "a=1"}, iterate(t, store, nil, nil, reverse))
	assert.Equal(t, []string{"c=3", "b=2"}, iterate(t, store, []byte("b"), []byte("d"), reverse))
	assert.Equal(t, []string{"d=4", "c=3"}, iterate(t, store, []byte("bb"), nil, reverse))
	assert.Equal(t, []string{"a=1"}, iterate(t, store, nil, []byte("b"), reverse))
}

func testIteratorValidity(t *testing.T, store db.KVStore) {
	fill(t, store, map[string]string{
		"key1": "value1",
		"key2": "value2",
	})

	snap, err := store.NewSnapshot()
	require.NoError(t, err)
	defer snap.Close() //nolint:errcheck

	iter, err := snap.NewIterator(nil, nil, db.ReadOptions{})
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	// Initial state - iterator is not positioned
	assert.False(t, iter.Valid())

	// First Next() should position at first element
	assert.True(t, iter.Next())
	assert.True(t, iter.Valid())
	assert.Equal(t, []byte("key1"), iter.Key())
	val, err := iter.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), val)

	assert.True(t, iter.Next())
	assert.True(t, iter.Valid())
	assert.Equal(t, []byte("key2"), iter.Key())

	// No more elements, and the iterator stays exhausted
	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())
	assert.False(t, iter.Next())

	_, err = iter.Value()
	assert.ErrorIs(t, err, db.ErrIteratorInvalid)
}

func testClosedStore(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("key"), []byte("value")))
	require.NoError(t, store.Close())

	_, err := store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)
	assert.ErrorIs(t, store.Put([]byte("key"), []byte("value")), db.ErrClosed)
	assert.ErrorIs(t, store.Delete([]byte("key")), db.ErrClosed)
	_, err = store.NewSnapshot()
	assert.ErrorIs(t, err, db.ErrClosed)

	// Closing twice is a no-op
	assert.NoError(t, store.Close())
}

func testUseAfterClose(t *testing.T, store db.KVStore) {
	fill(t, store, map[string]string{"a": "1", "b": "2"})

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("c"), []byte("3")))
	snap, err := store.NewSnapshot()
	require.NoError(t, err)
	iter, err := snap.NewIterator(nil, nil, db.ReadOptions{})
	require.NoError(t, err)
	require.True(t, iter.Next())

	// The store releases the snapshot and iterator left open
	require.NoError(t, store.Close())

	assert.ErrorIs(t, batch.Commit(false), db.ErrClosed)
	_, err = snap.Get([]byte("a"), db.ReadOptions{})
	assert.ErrorIs(t, err, db.ErrClosed)
	_, err = snap.NewIterator(nil, nil, db.ReadOptions{})
	assert.ErrorIs(t, err, db.ErrClosed)

	assert.False(t, iter.Valid())
	_, err = iter.Value()
	assert.ErrorIs(t, err, db.ErrClosed)
	assert.False(t, iter.Next())

	// The iterator was cut short, so closing it reports that once
	assert.ErrorIs(t, iter.Close(), db.ErrClosed)
	assert.NoError(t, iter.Close())
	assert.NoError(t, snap.Close())
	assert.NoError(t, batch.Close())
}
