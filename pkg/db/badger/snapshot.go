package badger

import (
	"bytes"
	"sync"

	"github.com/dgraph-io/badger"

	"github.com/eigerco/lexkv/pkg/db"
)

// Snapshot is a read-only badger transaction. Badger panics when a
// transaction is discarded with iterators still open, so the discard is
// deferred until the last iterator closes.
//
// Lock order is the store lock, then the snapshot lock.
type Snapshot struct {
	store *KVStore
	txn   *badger.Txn
	id    uint64

	mu     sync.Mutex
	open   int
	closed bool
}

func (s *KVStore) NewSnapshot() (db.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	snap := &Snapshot{store: s, txn: s.db.NewTransaction(false)}
	snap.id = s.handles.Track(snap.release)
	return snap, nil
}

// Get ignores the read flags, badger has no equivalent for them.
func (s *Snapshot) Get(key []byte, _ db.ReadOptions) ([]byte, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	return get(s.txn, key)
}

func (s *Snapshot) NewIterator(start, end []byte, opts db.ReadOptions) (db.Iterator, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	iopts := badger.DefaultIteratorOptions
	iopts.PrefetchSize = prefetchSize
	iopts.Reverse = opts.Reverse
	lower, upper := encodeBounds(start, end)
	s.open++
	it := &Iterator{
		snap:    s,
		iter:    s.txn.NewIterator(iopts),
		lower:   lower,
		upper:   upper,
		reverse: opts.Reverse,
	}
	it.id = s.store.handles.Track(it.orphan)
	return it, nil
}

func (s *Snapshot) usable() error {
	if s.store.closed {
		return db.ErrClosed
	}
	if s.closed {
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
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.open == 0 {
		s.txn.Discard()
	}
	return nil
}

// iteratorDone drops one open iterator and discards the transaction once the
// snapshot is closed and no iterator is left.
func (s *Snapshot) iteratorDone() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open--
	if s.closed && s.open == 0 {
		s.txn.Discard()
	}
}

type Iterator struct {
	snap         *Snapshot
	iter         *badger.Iterator
	id           uint64
	lower, upper []byte
	reverse      bool
	started      bool
	closed       bool
	orphaned     bool
}

func (it *Iterator) Next() bool {
	it.snap.store.mu.RLock()
	defer it.snap.store.mu.RUnlock()

	if it.closed {
		return false
	}
	if !it.started {
		it.started = true
		if it.reverse {
			// Seek lands on the greatest key not above upper, which is
			// excluded from the range
			it.iter.Seek(it.upper)
			if it.iter.Valid() && bytes.Equal(it.iter.Item().Key(), it.upper) {
				it.iter.Next()
			}
		} else {
			it.iter.Seek(it.lower)
		}
		return it.valid()
	}
	if !it.valid() {
		return false
	}
	it.iter.Next()
	return it.valid()
}

func (it *Iterator) Key() []byte {
	it.snap.store.mu.RLock()
	defer it.snap.store.mu.RUnlock()

	if it.closed {
		return nil
	}
	return decodeKey(it.iter.Item().Key())
}

func (it *Iterator) Value() ([]byte, error) {
	it.snap.store.mu.RLock()
	defer it.snap.store.mu.RUnlock()

	if it.closed && it.snap.store.closed {
		return nil, db.ErrClosed
	}
	if !it.valid() {
		return nil, db.ErrIteratorInvalid
	}
	return it.iter.Item().ValueCopy(nil)
}

func (it *Iterator) Valid() bool {
	it.snap.store.mu.RLock()
	defer it.snap.store.mu.RUnlock()

	return it.valid()
}

func (it *Iterator) valid() bool {
	if !it.started || it.closed || !it.iter.Valid() {
		return false
	}
	key := it.iter.Item().Key()
	if it.reverse {
		return bytes.Compare(key, it.lower) >= 0
	}
	return bytes.Compare(key, it.upper) < 0
}

func (it *Iterator) Close() error {
	it.snap.store.mu.RLock()
	defer it.snap.store.mu.RUnlock()

	if !it.snap.store.handles.Untrack(it.id) {
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
	it.iter.Close()
	it.snap.iteratorDone()
	return nil
}
