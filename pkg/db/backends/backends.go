// Package backends opens any of the supported storage engines by name.
package backends

import (
	"errors"
	"fmt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/db/badger"
	"github.com/eigerco/lexkv/pkg/db/leveldb"
	"github.com/eigerco/lexkv/pkg/db/memory"
	"github.com/eigerco/lexkv/pkg/db/pebble"
	"github.com/eigerco/lexkv/pkg/log"
)

// Kind names a storage engine.
type Kind string

const (
	Pebble  Kind = "pebble"
	LevelDB Kind = "leveldb"
	Badger  Kind = "badger"
	Memory  Kind = "memory"
)

var ErrUnknownKind = errors.New("unknown storage engine")

// Kinds lists every supported engine.
func Kinds() []Kind {
	return []Kind{Pebble, LevelDB, Badger, Memory}
}

// ParseKind validates an engine name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Persistent reports whether the engine keeps its data on disk.
func (k Kind) Persistent() bool {
	return k != Memory
}

// Open opens the engine named kind at path. The memory engine ignores path
// and every option.
func Open(kind Kind, path string, opts db.Options) (db.KVStore, error) {
	var (
		store db.KVStore
		err   error
	)
	switch kind {
	case Pebble:
		store, err = pebble.Open(path, opts)
	case LevelDB:
		store, err = leveldb.Open(path, opts)
	case Badger:
		store, err = badger.Open(path, opts)
	case Memory:
		store = memory.NewKVStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	log.Store.Info().Str("engine", string(kind)).Str("path", path).Msg("store ready")
	return store, nil
}

// OpenDB opens the engine and wraps it in a db.DB.
func OpenDB(kind Kind, path string, opts db.Options) (*db.DB, error) {
	store, err := Open(kind, path, opts)
	if err != nil {
		return nil, err
	}
	return db.New(store), nil
}
