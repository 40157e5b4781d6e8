package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Iterator reads a snapshot in one direction. Every call takes the store's
// read lock so a concurrent KVStore.Close cannot pull the pebble iterator
// away mid-step.
type Iterator struct {
	store   *KVStore
	iter    *pebble.Iterator
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
	// The first call positions the iterator at the first key in iteration order
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
			return nil, ErrClosed
		}
		return nil, ErrIteratorInvalid
	}
	if !it.iter.Valid() {
		return nil, ErrIteratorInvalid
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf("read value: %w", err)
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Valid() bool {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	return !it.closed && it.started && it.iter.Valid()
}

func (it *Iterator) Close() error {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if !it.store.handles.Untrack(it.id) {
		if it.orphaned {
			it.orphaned = false
			return ErrClosed
		}
		return nil
	}
	return it.release()
}

// orphan releases an iterator the caller left open when the store closed.
// The caller's own Close then reports ErrClosed.
func (it *Iterator) orphan() error {
	it.orphaned = true
	return it.release()
}

func (it *Iterator) release() error {
	it.closed = true
	return it.iter.Close()
}
