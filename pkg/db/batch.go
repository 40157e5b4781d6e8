package db

import "github.com/google/btree"

// Op is a pending mutation of a single key.
type Op struct {
	Key []byte
	// Value is the new value; it is ignored when Delete is set.
	Value  []byte
	Delete bool
}

func opLess(a, b Op) bool {
	return Compare(a.Key, b.Key) < 0
}

// WriteBatch collects mutations to be applied atomically by DB.Write. It keeps
// at most one op per key, in ascending key order; a later Put or Delete of a
// key replaces the earlier one. The batch is not bound to any store and may
// be applied to several.
//
// A WriteBatch is not safe for concurrent mutation.
type WriteBatch struct {
	ops *btree.BTreeG[Op]
}

// NewWriteBatch returns an empty batch.
func NewWriteBatch() *WriteBatch {
	return &WriteBatch{ops: btree.NewG(8, opLess)}
}

// Put records that key should be set to value. Both slices are copied.
func (b *WriteBatch) Put(key, value []byte) {
	b.ops.ReplaceOrInsert(Op{Key: clone(key), Value: clone(value)})
}

// Delete records that key should be removed. The slice is copied.
func (b *WriteBatch) Delete(key []byte) {
	b.ops.ReplaceOrInsert(Op{Key: clone(key), Delete: true})
}

// Lookup returns the pending op for key, if any.
func (b *WriteBatch) Lookup(key []byte) (Op, bool) {
	return b.ops.Get(Op{Key: key})
}

// Len returns the number of distinct keys in the batch.
func (b *WriteBatch) Len() int {
	return b.ops.Len()
}

// Enumerate calls fn once per pending op in ascending key order. The op's
// slices belong to the batch and must not be modified.
func (b *WriteBatch) Enumerate(fn func(op Op)) {
	b.ops.Ascend(func(op Op) bool {
		fn(op)
		return true
	})
}

// Ops returns a copy of the pending ops in ascending key order.
func (b *WriteBatch) Ops() []Op {
	out := make([]Op, 0, b.ops.Len())
	b.Enumerate(func(op Op) {
		cp := Op{Key: clone(op.Key), Delete: op.Delete}
		if !op.Delete {
			cp.Value = clone(op.Value)
		}
		out = append(out, cp)
	})
	return out
}

// Reset drops every pending op.
func (b *WriteBatch) Reset() {
	b.ops.Clear(false)
}
