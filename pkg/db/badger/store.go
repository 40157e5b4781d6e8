// Package badger implements db.KVStore on top of Badger.
//
// Badger rejects empty keys, so every key is stored behind a one byte tag.
// The tag also keeps user keys apart from badger's own "!badger!" entries.
package badger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

const (
	keyTag = byte(0x01)

	prefetchSize = 100
	gcRatio      = 0.5

	// manifest is always present in a badger directory once created.
	manifest = "MANIFEST"
)

func encodeKey(key []byte) []byte {
	out := make([]byte, len(key)+1)
	out[0] = keyTag
	copy(out[1:], key)
	return out
}

func decodeKey(key []byte) []byte {
	out := make([]byte, len(key)-1)
	copy(out, key[1:])
	return out
}

// encodeBounds maps [start, end) onto tagged keys. Both results are concrete:
// an unbounded end becomes the first key past the tag.
func encodeBounds(start, end []byte) ([]byte, []byte) {
	lower := encodeKey(start)
	if end == nil {
		return lower, []byte{keyTag + 1}
	}
	return lower, encodeKey(end)
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return db.ErrNotFound
	}
	return err
}

type KVStore struct {
	db      *badger.DB
	handles db.Handles
	closed  bool
	mu      sync.RWMutex
}

// Open opens or creates a badger store in the directory at path.
func Open(path string, opts db.Options) (*KVStore, error) {
	if err := db.CheckExistence(path, manifest, opts); err != nil {
		return nil, fmt.Errorf(db.ErrFailedOpen, "badger", path, err)
	}
	bdb, err := badger.Open(badgerOptions(path, opts))
	if err != nil {
		return nil, fmt.Errorf(db.ErrFailedOpen, "badger", path, err)
	}
	log.Engine.Debug().Str("engine", "badger").Str("path", path).Msg("store opened")
	return &KVStore{db: bdb}, nil
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		value, err = get(txn, key)
		return err
	})
	return value, err
}

func get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(encodeKey(key))
	if err != nil {
		return nil, translateError(err)
	}
	return item.ValueCopy(nil)
}

func (s *KVStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}
	return translateError(s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(key), value)
	}))
}

func (s *KVStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}
	return translateError(s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(encodeKey(key))
	}))
}

// ApproximateSize sums badger's size estimates of the live entries in the
// range. Badger keeps no per-range statistics, so this walks the keys.
func (s *KVStore) ApproximateSize(start, end []byte) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, db.ErrClosed
	}
	lower, upper := encodeBounds(start, end)
	var size uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(lower); it.Valid(); it.Next() {
			item := it.Item()
			if db.Compare(item.Key(), upper) >= 0 {
				break
			}
			size += uint64(item.EstimatedSize())
		}
		return nil
	})
	return size, err
}

// Compact flattens the LSM tree and reclaims value log space. Badger cannot
// compact a key range, so the whole store is compacted.
func (s *KVStore) Compact(start, end []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.ErrClosed
	}
	if start != nil || end != nil {
		log.Engine.Debug().Str("engine", "badger").Msg("range compaction unsupported, compacting everything")
	}
	if err := s.db.Flatten(1); err != nil {
		return fmt.Errorf("flatten: %w", err)
	}
	if err := s.db.RunValueLogGC(gcRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("value log gc: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.handles.ReleaseAll(), s.db.Close())
}
