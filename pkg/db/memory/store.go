// Package memory implements db.KVStore over an in-process B-tree. Snapshots
// are copy-on-write clones of the tree, so taking one is O(1).
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/eigerco/lexkv/pkg/db"
)

const degree = 32

type item struct {
	key   []byte
	value []byte
}

func less(a, b item) bool {
	return db.Compare(a.key, b.key) < 0
}

type KVStore struct {
	tree   *btree.BTreeG[item]
	closed bool
	mu     sync.RWMutex
}

func NewKVStore() *KVStore {
	return &KVStore{tree: btree.NewG(degree, less)}
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}

func (m *KVStore) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, db.ErrClosed
	}
	return get(m.tree, key)
}

func get(tree *btree.BTreeG[item], key []byte) ([]byte, error) {
	it, ok := tree.Get(item{key: key})
	if !ok {
		return nil, db.ErrNotFound
	}
	return clone(it.value), nil
}

func (m *KVStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return db.ErrClosed
	}
	m.tree.ReplaceOrInsert(item{key: clone(key), value: clone(value)})
	return nil
}

func (m *KVStore) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return db.ErrClosed
	}
	m.tree.Delete(item{key: key})
	return nil
}

// ApproximateSize returns the exact number of key and value bytes in range.
func (m *KVStore) ApproximateSize(start, end []byte) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, db.ErrClosed
	}
	var size uint64
	m.tree.AscendGreaterOrEqual(item{key: start}, func(it item) bool {
		if end != nil && db.Compare(it.key, end) >= 0 {
			return false
		}
		size += uint64(len(it.key) + len(it.value))
		return true
	})
	return size, nil
}

// Compact is a no-op, the tree has nothing to compact.
func (m *KVStore) Compact(_, _ []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return db.ErrClosed
	}
	return nil
}

func (m *KVStore) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *KVStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.tree = btree.NewG(degree, less)
	return nil
}

type Batch struct {
	store *KVStore
	ops   []db.Op
	done  atomic.Bool
}

func (m *KVStore) NewBatch() db.Batch {
	return &Batch{store: m}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, db.Op{Key: clone(key), Value: clone(value)})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, db.Op{Key: clone(key), Delete: true})
	return nil
}

// Commit applies every staged op under one write lock. The sync flag has no
// meaning for memory.
func (b *Batch) Commit(_ bool) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	if b.store.closed {
		return db.ErrClosed
	}
	for _, op := range b.ops {
		if op.Delete {
			b.store.tree.Delete(item{key: op.Key})
		} else {
			b.store.tree.ReplaceOrInsert(item{key: op.Key, value: op.Value})
		}
	}
	b.done.Store(true)
	b.ops = nil
	return nil
}

func (b *Batch) Close() error {
	if b.done.CompareAndSwap(false, true) {
		b.ops = nil
	}
	return nil
}
