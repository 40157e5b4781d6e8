package leveldb

import (
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/eigerco/lexkv/pkg/db"
)

type Snapshot struct {
	store  *KVStore
	snap   *leveldb.Snapshot
	id     uint64
	closed atomic.Bool
}

func (s *KVStore) NewSnapshot() (db.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, translate(err)
	}
	out := &Snapshot{store: s, snap: snap}
	out.id = s.handles.Track(out.release)
	return out, nil
}

func (s *Snapshot) Get(key []byte, opts db.ReadOptions) ([]byte, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	value, err := s.snap.Get(key, readOptions(opts))
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (s *Snapshot) NewIterator(start, end []byte, opts db.ReadOptions) (db.Iterator, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	it := &Iterator{
		store:   s.store,
		iter:    s.snap.NewIterator(&util.Range{Start: start, Limit: end}, readOptions(opts)),
		reverse: opts.Reverse,
	}
	it.id = s.store.handles.Track(it.orphan)
	return it, nil
}

func (s *Snapshot) usable() error {
	if s.store.closed {
		return db.ErrClosed
	}
	if s.closed.Load() {
		return db.ErrSnapshotClosed
	}
	return nil
}

func (s *Snapshot) Close() error {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	if !s.store.handles.Untrack(s.id) {
		return nil
	}
	return s.release()
}

func (s *Snapshot) release() error {
	s.closed.Store(true)
	s.snap.Release()
	return nil
}

type Iterator struct {
	store   *KVStore
	iter    iterator.Iterator
	id      uint64
	reverse bool
	started  bool
	closed   bool
	orphaned bool
}

func (it *Iterator) Next() bool {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.closed {
		return false
	}
	if !it.started {
		it.started = true
		if it.reverse {
			return it.iter.Last()
		}
		return it.iter.First()
	}
	if !it.iter.Valid() {
		return false
	}
	if it.reverse {
		return it.iter.Prev()
	}
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.closed {
		return nil
	}
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.closed {
		if it.store.closed {
			return nil, db.ErrClosed
		}
		return nil, db.ErrIteratorInvalid
	}
	if !it.valid() {
		if err := it.iter.Error(); err != nil {
			return nil, translate(err)
		}
		return nil, db.ErrIteratorInvalid
	}
	val := it.iter.Value()
	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Valid() bool {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	return !it.closed && it.valid()
}

func (it *Iterator) valid() bool {
	return it.started && it.iter.Valid()
}

// Close releases the iterator and reports any error met while iterating.
func (it *Iterator) Close() error {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if !it.store.handles.Untrack(it.id) {
		if it.orphaned {
			it.orphaned = false
			return db.ErrClosed
		}
		return nil
	}
	return it.release()
}

// orphan releases an iterator the caller left open when the store closed.
// The caller's own Close then reports db.ErrClosed.
func (it *Iterator) orphan() error {
	it.orphaned = true
	return it.release()
}

func (it *Iterator) release() error {
	it.closed = true
	err := it.iter.Error()
	it.iter.Release()
	return translate(err)
}
