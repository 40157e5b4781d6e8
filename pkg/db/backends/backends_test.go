package backends

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/lexkv/pkg/db"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("rocksdb")
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.False(t, Memory.Persistent())
	assert.True(t, Pebble.Persistent())
}

func TestOpen(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "db")
			d, err := OpenDB(kind, path, db.Options{CreateIfMissing: db.Bool(true)})
			require.NoError(t, err)

			batch := db.NewWriteBatch()
			batch.Put([]byte("foo"), []byte("bar"))
			batch.Put([]byte("qux"), []byte("abc"))
			require.NoError(t, d.Write(batch, true))

			v, err := d.Snapshot()
			require.NoError(t, err)
			keys, err := v.Keys()
			require.NoError(t, err)
			assert.Equal(t, [][]byte{[]byte("foo"), []byte("qux")}, keys)
			require.NoError(t, v.Close())
			require.NoError(t, d.Close())

			if !kind.Persistent() {
				return
			}
			_, err = Open(kind, path, db.Options{ErrorIfExists: db.Bool(true)})
			assert.Error(t, err)

			d, err = OpenDB(kind, path, db.Options{CreateIfMissing: db.Bool(false)})
			require.NoError(t, err)
			defer d.Close() //nolint:errcheck
			value, err := d.Get([]byte("qux"))
			require.NoError(t, err)
			assert.Equal(t, []byte("abc"), value)
		})
	}

	_, err := Open("rocksdb", t.TempDir(), db.Options{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestOpenMissing(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.Persistent() {
			continue
		}
		t.Run(string(kind), func(t *testing.T) {
			_, err := Open(kind, filepath.Join(t.TempDir(), "missing"), db.Options{CreateIfMissing: db.Bool(false)})
			assert.Error(t, err)
		})
	}
}
