// Package leveldb implements db.KVStore on top of goleveldb.
package leveldb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

type KVStore struct {
	db      *leveldb.DB
	handles db.Handles
	closed  bool
	mu      sync.RWMutex
}

// NewKVStore opens an empty store backed by memory storage.
func NewKVStore() (*KVStore, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf(db.ErrFailedOpen, "leveldb", "", err)
	}
	return &KVStore{db: ldb}, nil
}

// Open opens or creates a LevelDB store in the directory at path.
func Open(path string, opts db.Options) (*KVStore, error) {
	ldb, err := leveldb.OpenFile(path, levelOptions(opts))
	if err != nil {
		return nil, fmt.Errorf(db.ErrFailedOpen, "leveldb", path, err)
	}
	log.Engine.Debug().Str("engine", "leveldb").Str("path", path).Msg("store opened")
	return &KVStore{db: ldb}, nil
}

// translate maps goleveldb errors onto the shared db sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return db.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return db.ErrClosed
	case errors.Is(err, leveldb.ErrSnapshotReleased):
		return db.ErrSnapshotClosed
	}
	return err
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	value, err := s.db.Get(key, nil)
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (s *KVStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}
	return translate(s.db.Put(key, value, &opt.WriteOptions{Sync: true}))
}

func (s *KVStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}
	return translate(s.db.Delete(key, &opt.WriteOptions{Sync: true}))
}

func (s *KVStore) ApproximateSize(start, end []byte) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, db.ErrClosed
	}
	if end == nil {
		// SizeOf reads a nil limit as the empty key
		it := s.db.NewIterator(&util.Range{Start: start}, nil)
		ok := it.Last()
		if ok {
			end = db.FirstChild(it.Key())
		}
		err := it.Error()
		it.Release()
		if err != nil {
			return 0, translate(err)
		}
		if !ok {
			return 0, nil
		}
	}
	sizes, err := s.db.SizeOf([]util.Range{{Start: start, Limit: end}})
	if err != nil {
		return 0, translate(err)
	}
	return uint64(sizes.Sum()), nil
}

func (s *KVStore) Compact(start, end []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.ErrClosed
	}
	return translate(s.db.CompactRange(util.Range{Start: start, Limit: end}))
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.handles.ReleaseAll(), translate(s.db.Close()))
}
