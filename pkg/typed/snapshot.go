package typed

import (
	"errors"
	"fmt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
	"github.com/eigerco/lexkv/pkg/serialization"
)

// Entry is a decoded key-value pair.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Snapshot is a db.View over typed keys and values. Deriving a snapshot
// with a key that cannot be encoded does not fail at once: the error is
// kept and returned by every read of the derived snapshot.
type Snapshot[K, V any] struct {
	view   *db.View
	keys   *serialization.KeySerializer[K]
	values *serialization.Serializer[V]
	cfg    config
	err    error
}

func (s *Snapshot[K, V]) with(view *db.View, err error) *Snapshot[K, V] {
	if s.err != nil {
		err = s.err
	}
	return &Snapshot[K, V]{view: view, keys: s.keys, values: s.values, cfg: s.cfg, err: err}
}

// View returns the byte-level view.
func (s *Snapshot[K, V]) View() *db.View {
	return s.view
}

// Err returns the error recorded while deriving the snapshot, if any.
func (s *Snapshot[K, V]) Err() error {
	return s.err
}

func (s *Snapshot[K, V]) Policy() DecodePolicy {
	return s.cfg.policy
}

// WithDecodePolicy returns the snapshot with another malformed entry policy.
func (s *Snapshot[K, V]) WithDecodePolicy(p DecodePolicy) *Snapshot[K, V] {
	out := s.with(s.view, nil)
	out.cfg.policy = p
	return out
}

func (s *Snapshot[K, V]) Clamp(r Range[K]) *Snapshot[K, V] {
	br, err := r.encode(s.keys)
	if err != nil {
		return s.with(s.view, err)
	}
	return s.with(s.view.Clamp(br), nil)
}

func (s *Snapshot[K, V]) Prefix(p K) *Snapshot[K, V] {
	return s.Clamp(PrefixRange(p))
}

func (s *Snapshot[K, V]) After(key K) *Snapshot[K, V] {
	return s.Clamp(All[K]().After(key))
}

func (s *Snapshot[K, V]) Reversed() *Snapshot[K, V] {
	return s.with(s.view.Reversed(), nil)
}

func (s *Snapshot[K, V]) Noncaching() *Snapshot[K, V] {
	return s.with(s.view.Noncaching(), nil)
}

func (s *Snapshot[K, V]) Checksummed() *Snapshot[K, V] {
	return s.with(s.view.Checksummed(), nil)
}

func (s *Snapshot[K, V]) IsReversed() bool {
	return s.view.IsReversed()
}

// Get returns the value stored under key in the snapshot. Keys outside the
// snapshot's range and values that do not decode are reported as absent.
func (s *Snapshot[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if s.err != nil {
		return zero, false, s.err
	}
	k, err := s.keys.Encode(key)
	if err != nil {
		return zero, false, fmt.Errorf(ErrEncodeKey, err)
	}
	raw, err := s.view.Get(k)
	if errors.Is(err, db.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return decodeValue(s.values, k, raw)
}

// Iter returns a fresh cursor over the snapshot.
func (s *Snapshot[K, V]) Iter() (*Cursor[K, V], error) {
	if s.err != nil {
		return nil, s.err
	}
	c, err := s.view.Iter()
	if err != nil {
		return nil, err
	}
	return &Cursor[K, V]{c: c, keys: s.keys, values: s.values, policy: s.cfg.policy}, nil
}

// ForEach calls fn for every decodable entry in snapshot order until fn
// returns false.
func (s *Snapshot[K, V]) ForEach(fn func(key K, value V) bool) error {
	c, err := s.Iter()
	if err != nil {
		return err
	}
	for c.Next() {
		if !fn(c.Key(), c.Value()) {
			break
		}
	}
	if err := c.Err(); err != nil {
		_ = c.Close()
		return err
	}
	return c.Close()
}

func (s *Snapshot[K, V]) Entries() ([]Entry[K, V], error) {
	var out []Entry[K, V]
	err := s.ForEach(func(key K, value V) bool {
		out = append(out, Entry[K, V]{Key: key, Value: value})
		return true
	})
	return out, err
}

func (s *Snapshot[K, V]) Keys() ([]K, error) {
	var out []K
	err := s.ForEach(func(key K, _ V) bool {
		out = append(out, key)
		return true
	})
	return out, err
}

func (s *Snapshot[K, V]) Values() ([]V, error) {
	var out []V
	err := s.ForEach(func(_ K, value V) bool {
		out = append(out, value)
		return true
	})
	return out, err
}

// First returns the decodable entry with the smallest key.
func (s *Snapshot[K, V]) First() (Entry[K, V], bool, error) {
	fwd := s
	if s.view.IsReversed() {
		fwd = s.Reversed()
	}
	return fwd.head()
}

// Last returns the decodable entry with the greatest key.
func (s *Snapshot[K, V]) Last() (Entry[K, V], bool, error) {
	rev := s
	if !s.view.IsReversed() {
		rev = s.Reversed()
	}
	return rev.head()
}

func (s *Snapshot[K, V]) head() (Entry[K, V], bool, error) {
	var (
		e  Entry[K, V]
		ok bool
	)
	err := s.ForEach(func(key K, value V) bool {
		e, ok = Entry[K, V]{Key: key, Value: value}, true
		return false
	})
	return e, ok, err
}

// Close releases the snapshot for this and every derived snapshot.
func (s *Snapshot[K, V]) Close() error {
	return s.view.Close()
}

// Cursor walks a snapshot and decodes each entry.
type Cursor[K, V any] struct {
	c       *db.Cursor
	keys    *serialization.KeySerializer[K]
	values  *serialization.Serializer[V]
	policy  DecodePolicy
	key     K
	value   V
	err     error
	skipped int
}

func (c *Cursor[K, V]) Next() bool {
	if c.err != nil {
		return false
	}
	for c.c.Next() {
		rawKey := c.c.Key()
		key, err := c.keys.Decode(rawKey)
		if err != nil {
			if c.malformed(fmt.Errorf(errDecodeKey, ErrMalformed, rawKey, err)) {
				continue
			}
			return false
		}
		value, err := c.values.Decode(c.c.Value())
		if err != nil {
			if c.malformed(fmt.Errorf(errDecodeValue, ErrMalformed, rawKey, err)) {
				continue
			}
			return false
		}
		c.key, c.value = key, value
		return true
	}
	c.err = c.c.Err()
	return false
}

// malformed applies the decode policy and reports whether to keep going.
func (c *Cursor[K, V]) malformed(err error) bool {
	if c.policy == FailFast {
		c.err = err
		return false
	}
	c.skipped++
	log.Store.Debug().Err(err).Msg("skipping malformed entry")
	return true
}

func (c *Cursor[K, V]) Key() K   { return c.key }
func (c *Cursor[K, V]) Value() V { return c.value }
func (c *Cursor[K, V]) Err() error {
	return c.err
}

// Skipped returns how many malformed entries the cursor has passed over.
func (c *Cursor[K, V]) Skipped() int {
	return c.skipped
}

func (c *Cursor[K, V]) Close() error {
	return c.c.Close()
}
