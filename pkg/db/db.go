package db

import (
	"fmt"

	"github.com/eigerco/lexkv/pkg/log"
)

// DB is the byte-level access layer over a KVStore: point operations,
// batched writes, snapshot views and maintenance over ranges.
type DB struct {
	store KVStore
}

// New wraps an opened engine.
func New(store KVStore) *DB {
	return &DB{store: store}
}

// Store returns the wrapped engine.
func (d *DB) Store() KVStore {
	return d.store
}

// Get returns the value stored under key, or ErrNotFound.
func (d *DB) Get(key []byte) ([]byte, error) {
	return d.store.Get(key)
}

func (d *DB) Put(key, value []byte) error {
	return d.store.Put(key, value)
}

func (d *DB) Delete(key []byte) error {
	return d.store.Delete(key)
}

// Write applies every op of b atomically: either all of them become visible
// or, when an error is returned, none do. b itself is left untouched and can
// be written again.
func (d *DB) Write(b *WriteBatch, sync bool) error {
	batch := d.store.NewBatch()
	defer batch.Close() //nolint:errcheck // closing a committed batch is a no-op

	var err error
	b.Enumerate(func(op Op) {
		if err != nil {
			return
		}
		if op.Delete {
			err = batch.Delete(op.Key)
		} else {
			err = batch.Put(op.Key, op.Value)
		}
	})
	if err != nil {
		return fmt.Errorf("stage batch: %w", err)
	}

	if err := batch.Commit(sync); err != nil {
		log.Store.Error().Err(err).Int("ops", b.Len()).Msg("batch rejected")
		return fmt.Errorf(ErrFailedBatchCommit, err)
	}
	log.Store.Debug().Int("ops", b.Len()).Bool("sync", sync).Msg("batch applied")
	return nil
}

// Snapshot captures the current contents of the store. The returned view
// covers the whole keyspace in forward order; it must be closed after use.
func (d *DB) Snapshot() (*View, error) {
	snap, err := d.store.NewSnapshot()
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	log.Store.Debug().Msg("snapshot opened")
	return newView(snap), nil
}

// ApproximateSize estimates the storage used by the keys in r.
func (d *DB) ApproximateSize(r Range) (uint64, error) {
	i := r.Interval()
	if i.Empty() {
		return 0, nil
	}
	start, end := i.bounds()
	return d.store.ApproximateSize(start, end)
}

// ApproximateSizes estimates the storage used by each of rs.
func (d *DB) ApproximateSizes(rs ...Range) ([]uint64, error) {
	out := make([]uint64, len(rs))
	for i, r := range rs {
		n, err := d.ApproximateSize(r)
		if err != nil {
			return nil, fmt.Errorf("range %s: %w", r, err)
		}
		out[i] = n
	}
	return out, nil
}

// Compact asks the engine to compact the keys in r.
func (d *DB) Compact(r Range) error {
	i := r.Interval()
	if i.Empty() {
		return nil
	}
	start, end := i.bounds()
	if err := d.store.Compact(start, end); err != nil {
		return fmt.Errorf("compact %s: %w", i, err)
	}
	log.Store.Debug().Stringer("interval", i).Msg("compacted")
	return nil
}

func (d *DB) Close() error {
	return d.store.Close()
}
