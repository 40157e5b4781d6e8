package pebble

import (
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/lexkv/pkg/db"
)

type Snapshot struct {
	store  *KVStore
	snap   *pebble.Snapshot
	id     uint64
	closed atomic.Bool
}

func (p *KVStore) NewSnapshot() (db.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}
	s := &Snapshot{store: p, snap: p.db.NewSnapshot()}
	s.id = p.handles.Track(s.release)
	return s, nil
}

// Get ignores the cache and checksum flags: pebble always verifies block
// checksums and has no per-read cache bypass.
func (s *Snapshot) Get(key []byte, _ db.ReadOptions) ([]byte, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	return get(s.snap, key)
}

func (s *Snapshot) NewIterator(start, end []byte, opts db.ReadOptions) (db.Iterator, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	iter, err := s.snap.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, fmt.Errorf(db.ErrInIteratorCreation, err)
	}
	it := &Iterator{store: s.store, iter: iter, reverse: opts.Reverse}
	it.id = s.store.handles.Track(it.orphan)
	return it, nil
}

// usable must be called with the store lock held.
func (s *Snapshot) usable() error {
	if s.store.closed {
		return ErrClosed
	}
	if s.closed.Load() {
		return db.ErrSnapshotClosed
	}
	return nil
}

// Close releases the snapshot. After the store is closed it is a no-op, the
// store has released it already.
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
	return s.snap.Close()
}
