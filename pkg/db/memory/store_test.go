package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/db/dbtest"
)

func newTestStore(*testing.T) db.KVStore {
	return NewKVStore()
}

func TestKVStore(t *testing.T) {
	dbtest.RunEngine(t, newTestStore)
}

func TestDB(t *testing.T) {
	dbtest.Run(t, newTestStore)
}

func TestInMemory(t *testing.T) {
	d := db.New(NewKVStore())
	defer d.Close() //nolint:errcheck

	_, err := d.Get([]byte{})
	assert.ErrorIs(t, err, db.ErrNotFound)
	require.NoError(t, d.Put([]byte{}, []byte{}))
	_, err = d.Get([]byte{})
	assert.NoError(t, err)
	require.NoError(t, d.Delete([]byte{}))
	_, err = d.Get([]byte{})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSnapshotIsCopyOnWrite(t *testing.T) {
	store := NewKVStore()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put([]byte(k), []byte(k)))
	}
	snap, err := store.NewSnapshot()
	require.NoError(t, err)
	defer snap.Close() //nolint:errcheck

	require.NoError(t, store.Delete([]byte("b")))
	require.NoError(t, store.Put([]byte("a"), []byte("changed")))
	require.NoError(t, store.Put([]byte("bb"), []byte("new")))

	iter, err := snap.NewIterator(nil, nil, db.ReadOptions{Reverse: true})
	require.NoError(t, err)
	var got []string
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)
		got = append(got, string(iter.Key())+"="+string(value))
	}
	assert.Equal(t, []string{"c=c", "b=b", "a=a"}, got)

	size, err := store.ApproximateSize(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(len("achanged")+len("bbnew")+len("cc")), size)
}
