package typed

import (
	"fmt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/serialization"
)

// Change is a pending mutation of one key. Value is the zero V for deletes.
type Change[K, V any] struct {
	Key    K
	Value  V
	Delete bool
}

// WriteBatch is db.WriteBatch over typed keys and values.
type WriteBatch[K, V any] struct {
	batch  *db.WriteBatch
	keys   *serialization.KeySerializer[K]
	values *serialization.Serializer[V]
}

func NewWriteBatch[K, V any](keys *serialization.KeySerializer[K], values *serialization.Serializer[V]) *WriteBatch[K, V] {
	return &WriteBatch[K, V]{batch: db.NewWriteBatch(), keys: keys, values: values}
}

// Raw returns the underlying byte-level batch.
func (b *WriteBatch[K, V]) Raw() *db.WriteBatch {
	return b.batch
}

func (b *WriteBatch[K, V]) Put(key K, value V) error {
	k, err := b.keys.Encode(key)
	if err != nil {
		return fmt.Errorf(ErrEncodeKey, err)
	}
	v, err := b.values.Encode(value)
	if err != nil {
		return fmt.Errorf(ErrEncodeValue, err)
	}
	b.batch.Put(k, v)
	return nil
}

func (b *WriteBatch[K, V]) Delete(key K) error {
	k, err := b.keys.Encode(key)
	if err != nil {
		return fmt.Errorf(ErrEncodeKey, err)
	}
	b.batch.Delete(k)
	return nil
}

// Lookup returns the pending change for key, if any.
func (b *WriteBatch[K, V]) Lookup(key K) (Change[K, V], bool, error) {
	k, err := b.keys.Encode(key)
	if err != nil {
		return Change[K, V]{}, false, fmt.Errorf(ErrEncodeKey, err)
	}
	op, ok := b.batch.Lookup(k)
	if !ok {
		return Change[K, V]{}, false, nil
	}
	c, err := b.decode(op)
	return c, err == nil, err
}

func (b *WriteBatch[K, V]) Len() int {
	return b.batch.Len()
}

func (b *WriteBatch[K, V]) Reset() {
	b.batch.Reset()
}

// Diff returns the pending changes in ascending key order, one per key.
func (b *WriteBatch[K, V]) Diff() ([]Change[K, V], error) {
	out := make([]Change[K, V], 0, b.batch.Len())
	var err error
	b.batch.Enumerate(func(op db.Op) {
		if err != nil {
			return
		}
		var c Change[K, V]
		c, err = b.decode(op)
		out = append(out, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *WriteBatch[K, V]) decode(op db.Op) (Change[K, V], error) {
	var c Change[K, V]
	k, err := b.keys.Decode(op.Key)
	if err != nil {
		return c, fmt.Errorf(errDecodeKey, ErrMalformed, op.Key, err)
	}
	c.Key, c.Delete = k, op.Delete
	if op.Delete {
		return c, nil
	}
	if c.Value, err = b.values.Decode(op.Value); err != nil {
		return c, fmt.Errorf(errDecodeValue, ErrMalformed, op.Key, err)
	}
	return c, nil
}
