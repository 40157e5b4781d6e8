package db

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// snapshotHandle is the engine snapshot shared by a view and every view
// derived from it.
type snapshotHandle struct {
	snap   Snapshot
	closed atomic.Bool
}

// Entry is a key-value pair read from a view.
type Entry struct {
	Key   []byte
	Value []byte
}

// View is a read-only window onto a snapshot: the entries of one interval,
// in forward or reverse key order. Deriving a view (Clamp, Prefix, Reversed,
// ...) is cheap and never touches the engine. All views derived from one
// snapshot share it, and closing any of them releases it for all.
type View struct {
	h        *snapshotHandle
	interval Interval
	opts     ReadOptions
}

func newView(snap Snapshot) *View {
	return &View{h: &snapshotHandle{snap: snap}}
}

func (v *View) with(interval Interval, opts ReadOptions) *View {
	return &View{h: v.h, interval: interval, opts: opts}
}

// Interval returns the half-open key range the view is restricted to.
func (v *View) Interval() Interval { return v.interval }

// ReadOptions returns the read flags passed to the engine.
func (v *View) ReadOptions() ReadOptions { return v.opts }

// IsReversed reports whether the view iterates from its greatest key down.
func (v *View) IsReversed() bool { return v.opts.Reverse }

// IsNoncaching reports whether reads bypass the engine block cache.
func (v *View) IsNoncaching() bool { return v.opts.NoCache }

// IsChecksummed reports whether reads verify block checksums.
func (v *View) IsChecksummed() bool { return v.opts.VerifyChecksums }

// Reversed returns the view with its iteration order flipped.
func (v *View) Reversed() *View {
	opts := v.opts
	opts.Reverse = !opts.Reverse
	return v.with(v.interval, opts)
}

// Noncaching returns the view with engine block caching disabled for reads.
func (v *View) Noncaching() *View {
	opts := v.opts
	opts.NoCache = true
	return v.with(v.interval, opts)
}

// Checksummed returns the view with block checksum verification enabled.
func (v *View) Checksummed() *View {
	opts := v.opts
	opts.VerifyChecksums = true
	return v.with(v.interval, opts)
}

// Clamp narrows the view to the keys that are in both the view and r.
func (v *View) Clamp(r Range) *View {
	return v.ClampInterval(r.Interval())
}

// ClampInterval narrows the view to its intersection with i.
func (v *View) ClampInterval(i Interval) *View {
	return v.with(v.interval.Intersect(i), v.opts)
}

// Prefix narrows the view to the keys starting with p.
func (v *View) Prefix(p []byte) *View {
	return v.Clamp(PrefixRange(p))
}

// After narrows the view to the keys strictly greater than key.
func (v *View) After(key []byte) *View {
	return v.Clamp(All().After(key))
}

// Get returns the value stored under key in the snapshot. Keys outside the
// view's interval are reported as ErrNotFound.
func (v *View) Get(key []byte) ([]byte, error) {
	if v.h.closed.Load() {
		return nil, ErrSnapshotClosed
	}
	if !v.interval.Contains(key) {
		return nil, ErrNotFound
	}
	return v.h.snap.Get(key, v.opts)
}

// Iter returns a new cursor over the view. Every call starts over from the
// beginning of the view and cursors are independent of each other.
func (v *View) Iter() (*Cursor, error) {
	if v.h.closed.Load() {
		return nil, ErrSnapshotClosed
	}
	if v.interval.Empty() {
		return &Cursor{}, nil
	}
	start, end := v.interval.bounds()
	it, err := v.h.snap.NewIterator(start, end, v.opts)
	if err != nil {
		return nil, fmt.Errorf(ErrInIteratorCreation, err)
	}
	return &Cursor{it: it}, nil
}

// ForEach calls fn for every entry of the view in view order until fn
// returns false.
func (v *View) ForEach(fn func(key, value []byte) bool) error {
	c, err := v.Iter()
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

// Entries returns every entry of the view in view order.
func (v *View) Entries() ([]Entry, error) {
	var out []Entry
	err := v.ForEach(func(key, value []byte) bool {
		out = append(out, Entry{Key: key, Value: value})
		return true
	})
	return out, err
}

// Keys returns every key of the view in view order.
func (v *View) Keys() ([][]byte, error) {
	var out [][]byte
	err := v.ForEach(func(key, _ []byte) bool {
		out = append(out, key)
		return true
	})
	return out, err
}

// Values returns every value of the view in view order.
func (v *View) Values() ([][]byte, error) {
	var out [][]byte
	err := v.ForEach(func(_, value []byte) bool {
		out = append(out, value)
		return true
	})
	return out, err
}

// First returns the entry with the smallest key in the view.
func (v *View) First() (Entry, bool, error) {
	opts := v.opts
	opts.Reverse = false
	return v.with(v.interval, opts).head()
}

// Last returns the entry with the greatest key in the view.
func (v *View) Last() (Entry, bool, error) {
	opts := v.opts
	opts.Reverse = true
	return v.with(v.interval, opts).head()
}

func (v *View) head() (Entry, bool, error) {
	var (
		e  Entry
		ok bool
	)
	err := v.ForEach(func(key, value []byte) bool {
		e, ok = Entry{Key: key, Value: value}, true
		return false
	})
	return e, ok, err
}

// Digest returns the blake2b-256 hash of the view's entries in ascending key
// order, each key and value prefixed by its big-endian uint32 length. Views
// with equal contents have equal digests regardless of orientation.
func (v *View) Digest() ([32]byte, error) {
	var out [32]byte
	h, err := blake2b.New256(nil)
	if err != nil {
		return out, err
	}
	var lenBuf [4]byte
	opts := v.opts
	opts.Reverse = false
	err = v.with(v.interval, opts).ForEach(func(key, value []byte) bool {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
		h.Write(lenBuf[:])
		h.Write(key)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
		h.Write(lenBuf[:])
		h.Write(value)
		return true
	})
	if err != nil {
		return out, err
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Close releases the engine snapshot. It is shared by every view derived from
// the same DB.Snapshot call, so those views stop working too. Closing twice
// is a no-op.
func (v *View) Close() error {
	if !v.h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return v.h.snap.Close()
}

// Cursor walks the entries of a view. Key and Value return copies that the
// caller may keep.
type Cursor struct {
	it    Iterator
	key   []byte
	value []byte
	err   error
	done  bool
}

// Next advances to the next entry and reports whether there is one.
func (c *Cursor) Next() bool {
	if c.it == nil || c.done {
		return false
	}
	if !c.it.Next() {
		c.done = true
		return false
	}
	c.key = c.it.Key()
	c.value, c.err = c.it.Value()
	if c.err != nil {
		c.err = fmt.Errorf(ErrIteratorValue, c.err)
		c.done = true
		return false
	}
	return true
}

// Key returns the key of the current entry.
func (c *Cursor) Key() []byte { return c.key }

// Value returns the value of the current entry.
func (c *Cursor) Value() []byte { return c.value }

// Err returns the error that stopped the cursor, if any.
func (c *Cursor) Err() error { return c.err }

// Close releases the engine iterator. It reports ErrClosed when the store
// was closed while the cursor was still open. It is safe to call more than
// once.
func (c *Cursor) Close() error {
	if c.it == nil {
		return nil
	}
	err := c.it.Close()
	c.it = nil
	return err
}
