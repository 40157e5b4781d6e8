package badger

import (
	"sync/atomic"

	"github.com/dgraph-io/badger"

	"github.com/eigerco/lexkv/pkg/db"
)

// Batch stages ops in memory and applies them in one badger transaction.
type Batch struct {
	store *KVStore
	ops   []db.Op
	done  atomic.Bool
}

func (s *KVStore) NewBatch() db.Batch {
	return &Batch{store: s}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, db.Op{Key: encodeKey(key), Value: append([]byte{}, value...)})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, db.Op{Key: encodeKey(key), Delete: true})
	return nil
}

func (b *Batch) Commit(sync bool) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	if b.store.closed {
		return db.ErrClosed
	}

	err := b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			var err error
			if op.Delete {
				err = txn.Delete(op.Key)
			} else {
				err = txn.Set(op.Key, op.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError(err)
	}
	b.done.Store(true)
	b.ops = nil
	if sync {
		return b.store.db.Sync()
	}
	return nil
}

func (b *Batch) Close() error {
	if b.done.CompareAndSwap(false, true) {
		b.ops = nil
	}
	return nil
}
