// Package typed binds key and value types to the byte-level db package
// through codecs. Keys must use an order preserving codec so that ranges
// over typed keys select the same entries as ranges over their encodings.
package typed

import (
	"errors"
	"fmt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
	"github.com/eigerco/lexkv/pkg/serialization"
)

type Database[K, V any] struct {
	db     *db.DB
	keys   *serialization.KeySerializer[K]
	values *serialization.Serializer[V]
	cfg    config
}

func New[K, V any](d *db.DB, keys *serialization.KeySerializer[K], values *serialization.Serializer[V], opts ...Option) *Database[K, V] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Database[K, V]{db: d, keys: keys, values: values, cfg: cfg}
}

// Raw returns the byte-level database.
func (d *Database[K, V]) Raw() *db.DB {
	return d.db
}

// Get returns the value stored under key. A stored value that does not
// decode is reported as absent.
func (d *Database[K, V]) Get(key K) (V, bool, error) {
	var zero V
	k, err := d.keys.Encode(key)
	if err != nil {
		return zero, false, fmt.Errorf(ErrEncodeKey, err)
	}
	raw, err := d.db.Get(k)
	if errors.Is(err, db.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return decodeValue(d.values, k, raw)
}

func decodeValue[V any](values *serialization.Serializer[V], key, raw []byte) (V, bool, error) {
	v, err := values.Decode(raw)
	if err != nil {
		log.Store.Debug().Hex("key", key).Err(err).Msg("malformed value read as absent")
		var zero V
		return zero, false, nil
	}
	return v, true, nil
}

func (d *Database[K, V]) Put(key K, value V) error {
	k, err := d.keys.Encode(key)
	if err != nil {
		return fmt.Errorf(ErrEncodeKey, err)
	}
	v, err := d.values.Encode(value)
	if err != nil {
		return fmt.Errorf(ErrEncodeValue, err)
	}
	return d.db.Put(k, v)
}

func (d *Database[K, V]) Delete(key K) error {
	k, err := d.keys.Encode(key)
	if err != nil {
		return fmt.Errorf(ErrEncodeKey, err)
	}
	return d.db.Delete(k)
}

// NewWriteBatch returns an empty batch using the database's codecs.
func (d *Database[K, V]) NewWriteBatch() *WriteBatch[K, V] {
	return NewWriteBatch(d.keys, d.values)
}

// Write applies b atomically.
func (d *Database[K, V]) Write(b *WriteBatch[K, V], sync bool) error {
	return d.db.Write(b.batch, sync)
}

// Snapshot captures the current contents of the database.
func (d *Database[K, V]) Snapshot() (*Snapshot[K, V], error) {
	v, err := d.db.Snapshot()
	if err != nil {
		return nil, err
	}
	return &Snapshot[K, V]{view: v, keys: d.keys, values: d.values, cfg: d.cfg}, nil
}

func (d *Database[K, V]) ApproximateSize(r Range[K]) (uint64, error) {
	br, err := r.encode(d.keys)
	if err != nil {
		return 0, err
	}
	return d.db.ApproximateSize(br)
}

func (d *Database[K, V]) ApproximateSizes(rs ...Range[K]) ([]uint64, error) {
	brs := make([]db.Range, len(rs))
	for i, r := range rs {
		br, err := r.encode(d.keys)
		if err != nil {
			return nil, err
		}
		brs[i] = br
	}
	return d.db.ApproximateSizes(brs...)
}

func (d *Database[K, V]) Compact(r Range[K]) error {
	br, err := r.encode(d.keys)
	if err != nil {
		return err
	}
	return d.db.Compact(br)
}

func (d *Database[K, V]) Close() error {
	return d.db.Close()
}
