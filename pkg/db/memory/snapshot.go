package memory

import (
	"sync/atomic"

	"github.com/google/btree"

	"github.com/eigerco/lexkv/pkg/db"
)

// Snapshot reads a clone of the tree, so it holds no engine resources; it
// only follows the store's closed state.
type Snapshot struct {
	store  *KVStore
	tree   *btree.BTreeG[item]
	closed atomic.Bool
}

func (m *KVStore) NewSnapshot() (db.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, db.ErrClosed
	}
	// Clone marks the shared nodes copy-on-write, so it needs the write lock
	return &Snapshot{store: m, tree: m.tree.Clone()}, nil
}

func (s *Snapshot) Get(key []byte, _ db.ReadOptions) ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return get(s.tree, key)
}

func (s *Snapshot) NewIterator(start, end []byte, opts db.ReadOptions) (db.Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return &Iterator{store: s.store, tree: s.tree, start: start, end: end, reverse: opts.Reverse}, nil
}

func (s *Snapshot) usable() error {
	if s.store.isClosed() {
		return db.ErrClosed
	}
	if s.closed.Load() {
		return db.ErrSnapshotClosed
	}
	return nil
}

func (s *Snapshot) Close() error {
	s.closed.Store(true)
	return nil
}

// Iterator walks a cloned tree one seek per step, so it holds no tree
// position between calls.
type Iterator struct {
	store      *KVStore
	tree       *btree.BTreeG[item]
	start, end []byte
	reverse    bool

	cur     item
	valid   bool
	started bool
	done    bool
	closed  bool
}

func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.store.isClosed() {
		it.valid, it.done = false, true
		return false
	}
	var next item
	var found bool
	if it.reverse {
		next, found = it.prev()
	} else {
		next, found = it.next()
	}
	it.started = true
	it.cur, it.valid = next, found
	it.done = !found
	return found
}

func (it *Iterator) next() (item, bool) {
	pivot := item{key: it.start}
	if it.started {
		pivot.key = db.FirstChild(it.cur.key)
	}
	var out item
	var found bool
	it.tree.AscendGreaterOrEqual(pivot, func(i item) bool {
		if it.end == nil || db.Compare(i.key, it.end) < 0 {
			out, found = i, true
		}
		return false
	})
	return out, found
}

func (it *Iterator) prev() (item, bool) {
	var out item
	var found bool
	visit := func(i item) bool {
		// The pivot itself is excluded, both as the range end and as the
		// entry returned by the previous step
		if (it.started || it.end != nil) && db.Compare(i.key, pivotKey(it)) == 0 {
			return true
		}
		if db.Compare(i.key, it.start) >= 0 {
			out, found = i, true
		}
		return false
	}
	switch {
	case it.started:
		it.tree.DescendLessOrEqual(it.cur, visit)
	case it.end != nil:
		it.tree.DescendLessOrEqual(item{key: it.end}, visit)
	default:
		it.tree.Descend(visit)
	}
	return out, found
}

func pivotKey(it *Iterator) []byte {
	if it.started {
		return it.cur.key
	}
	return it.end
}

func (it *Iterator) Key() []byte {
	return clone(it.cur.key)
}

func (it *Iterator) Value() ([]byte, error) {
	if it.store.isClosed() {
		return nil, db.ErrClosed
	}
	if !it.valid {
		return nil, db.ErrIteratorInvalid
	}
	return clone(it.cur.value), nil
}

func (it *Iterator) Valid() bool {
	return it.valid && !it.store.isClosed()
}

// Close reports db.ErrClosed when the store closed before the iterator did.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.valid, it.done = false, true
	if it.store.isClosed() {
		return db.ErrClosed
	}
	return nil
}
