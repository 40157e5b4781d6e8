package leveldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/db/dbtest"
)

func newMemStore(t *testing.T) db.KVStore {
	store, err := NewKVStore()
	require.NoError(t, err)
	return store
}

func TestKVStore(t *testing.T) {
	dbtest.RunEngine(t, newMemStore)
}

func TestDB(t *testing.T) {
	dbtest.Run(t, newMemStore)
}

func TestOpenFailures(t *testing.T) {
	path := t.TempDir() + "/db"

	_, err := Open(path, db.Options{CreateIfMissing: db.Bool(false)})
	assert.Error(t, err, "should fail with create_if_missing false")

	store, err := Open(path, db.Options{CreateIfMissing: db.Bool(true)})
	require.NoError(t, err, "should succeed with create_if_missing true")
	require.NoError(t, store.Close())

	_, err = Open(path, db.Options{ErrorIfExists: db.Bool(true)})
	assert.Error(t, err, "should fail with error_if_exists true")
}

func TestOpenOptions(t *testing.T) {
	tests := []struct {
		name string
		opts db.Options
	}{
		{name: "filter_policy", opts: db.Options{BloomFilterBits: db.Int(10)}},
		{name: "cache", opts: db.Options{CacheCapacity: db.Int(2 << 20)}},
		{name: "paranoid", opts: db.Options{ParanoidChecks: db.Bool(true)}},
		{name: "uncompressed", opts: db.Options{Compression: db.CompressionOpt(db.NoCompression), BlockSize: db.Int(1024)}},
		{name: "buffers", opts: db.Options{WriteBufferSize: db.Int(1 << 20), MaxOpenFiles: db.Int(32), BlockRestartInterval: db.Int(4)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(t.TempDir(), tc.opts)
			require.NoError(t, err)
			defer store.Close() //nolint:errcheck

			require.NoError(t, store.Put([]byte("foo"), []byte("bar")))
			value, err := store.Get([]byte("foo"))
			require.NoError(t, err)
			assert.Equal(t, []byte("bar"), value)
		})
	}
}

func TestLevelOptions(t *testing.T) {
	o := levelOptions(db.Options{
		CreateIfMissing: db.Bool(false),
		ErrorIfExists:   db.Bool(true),
		ParanoidChecks:  db.Bool(true),
		WriteBufferSize: db.Int(123),
		MaxOpenFiles:    db.Int(7),
		CacheCapacity:   db.Int(456),
		Compression:     db.CompressionOpt(db.ZstdCompression),
	})
	assert.True(t, o.ErrorIfMissing)
	assert.True(t, o.ErrorIfExist)
	assert.Equal(t, opt.StrictAll, o.Strict)
	assert.Equal(t, 123, o.WriteBuffer)
	assert.Equal(t, 7, o.OpenFilesCacheCapacity)
	assert.Equal(t, 456, o.BlockCacheCapacity)
	assert.Equal(t, opt.SnappyCompression, o.Compression)
	assert.Nil(t, o.Filter)

	ro := readOptions(db.ReadOptions{NoCache: true, VerifyChecksums: true})
	assert.True(t, ro.DontFillCache)
	assert.Equal(t, opt.StrictBlockChecksum, ro.Strict)
}
