package typed

import (
	"fmt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/serialization"
)

type boundKind uint8

const (
	open boundKind = iota
	from
	after
	to
	through
)

type bound[K any] struct {
	kind boundKind
	key  K
}

// Range is db.Range over typed keys. Bounds are encoded with the key codec
// when the range is applied to a snapshot or database.
type Range[K any] struct {
	lower, upper bound[K]
	prefix       *K
}

func All[K any]() Range[K] {
	return Range[K]{}
}

func PrefixRange[K any](p K) Range[K] {
	return Range[K]{prefix: &p}
}

func (r Range[K]) From(key K) Range[K] {
	r.lower = bound[K]{kind: from, key: key}
	return r
}

func (r Range[K]) After(key K) Range[K] {
	r.lower = bound[K]{kind: after, key: key}
	return r
}

func (r Range[K]) To(key K) Range[K] {
	r.upper = bound[K]{kind: to, key: key}
	return r
}

func (r Range[K]) Through(key K) Range[K] {
	r.upper = bound[K]{kind: through, key: key}
	return r
}

func (r Range[K]) Prefix(p K) Range[K] {
	r.prefix = &p
	return r
}

// Unbounded drops both bounds and the prefix.
func (r Range[K]) Unbounded() Range[K] {
	return Range[K]{}
}

func (r Range[K]) encode(keys *serialization.KeySerializer[K]) (db.Range, error) {
	out := db.All()
	enc := func(k K) ([]byte, error) {
		b, err := keys.Encode(k)
		if err != nil {
			return nil, fmt.Errorf(ErrEncodeKey, err)
		}
		if b == nil {
			b = []byte{}
		}
		return b, nil
	}

	if r.lower.kind != open {
		b, err := enc(r.lower.key)
		if err != nil {
			return out, err
		}
		if r.lower.kind == from {
			out = out.From(b)
		} else {
			out = out.After(b)
		}
	}
	if r.upper.kind != open {
		b, err := enc(r.upper.key)
		if err != nil {
			return out, err
		}
		if r.upper.kind == to {
			out = out.To(b)
		} else {
			out = out.Through(b)
		}
	}
	if r.prefix != nil {
		b, err := enc(*r.prefix)
		if err != nil {
			return out, err
		}
		out = out.Prefix(b)
	}
	return out, nil
}
