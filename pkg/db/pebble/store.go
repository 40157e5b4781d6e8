package pebble

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

// KVStore is a db.KVStore backed by a pebble LSM tree.
type KVStore struct {
	db      *pebble.DB
	handles db.Handles
	closed  bool
	mu      sync.RWMutex
}

// NewKVStore opens an empty store held entirely in memory.
func NewKVStore() (*KVStore, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()}, nil)
}

// Open opens or creates a pebble store in the directory at path.
func Open(path string, opts db.Options) (*KVStore, error) {
	popts, cache := pebbleOptions(opts)
	return open(path, popts, cache)
}

func open(path string, opts *pebble.Options, cache *pebble.Cache) (*KVStore, error) {
	pdb, err := pebble.Open(path, opts)
	// pebble holds its own reference to the cache once opened
	if cache != nil {
		cache.Unref()
	}
	if err != nil {
		return nil, fmt.Errorf(db.ErrFailedOpen, "pebble", path, err)
	}
	log.Engine.Debug().Str("engine", "pebble").Str("path", path).Msg("store opened")
	return &KVStore{db: pdb}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}
	return get(p.db, key)
}

// getter is satisfied by both *pebble.DB and *pebble.Snapshot.
type getter interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(r getter, key []byte) ([]byte, error) {
	value, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

// upperBound turns an unbounded end into one just past the last stored key,
// since pebble's estimation and compaction calls need a concrete end. ok is
// false when no key at or after start exists.
func (p *KVStore) upperBound(start, end []byte) (upper []byte, ok bool, err error) {
	if end != nil {
		return end, true, nil
	}
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: start})
	if err != nil {
		return nil, false, fmt.Errorf(db.ErrInIteratorCreation, err)
	}
	defer it.Close()
	if !it.Last() {
		return nil, false, it.Error()
	}
	return db.FirstChild(it.Key()), true, nil
}

func (p *KVStore) ApproximateSize(start, end []byte) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrClosed
	}
	end, ok, err := p.upperBound(start, end)
	if err != nil || !ok {
		return 0, err
	}
	if start == nil {
		start = []byte{}
	}
	return p.db.EstimateDiskUsage(start, end)
}

func (p *KVStore) Compact(start, end []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	end, ok, err := p.upperBound(start, end)
	if err != nil || !ok {
		return err
	}
	if start == nil {
		start = []byte{}
	}
	return p.db.Compact(start, end, true)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	// pebble refuses to close with snapshots or iterators still open
	return errors.Join(p.handles.ReleaseAll(), p.db.Close())
}
