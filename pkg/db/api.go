package db

// KVStore represents an ordered key-value storage engine providing point
// operations, atomic batches and point-in-time snapshots over raw byte keys.
// Engine backends live in the sub-packages of this package.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewSnapshot() (Snapshot, error)
	// ApproximateSize estimates the on-disk size of the keys in [start, end).
	// A nil bound is unbounded.
	ApproximateSize(start, end []byte) (uint64, error)
	// Compact compacts the underlying storage for [start, end). A nil bound
	// is unbounded.
	Compact(start, end []byte) error
	// Close releases the snapshots and iterators still open. Afterwards
	// every call on the store, its batches, snapshots and iterators fails
	// with ErrClosed or reports no entries.
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically.
type Batch interface {
	Writer
	Delete(key []byte) error
	// Commit applies the batch. With sync set the engine flushes it to
	// stable storage before returning.
	Commit(sync bool) error
	Close() error
}

// ReadOptions tune how an engine services snapshot reads. They never change
// which entries are observed.
type ReadOptions struct {
	// Reverse iterates from the end of the range towards its start.
	Reverse bool
	// NoCache asks the engine not to populate its block cache.
	NoCache bool
	// VerifyChecksums asks the engine to verify block checksums on read.
	VerifyChecksums bool
}

// Snapshot is an immutable point-in-time view of a KVStore. Writes made to
// the store after the snapshot was taken are not visible through it.
// Snapshots must be closed after use.
type Snapshot interface {
	Get(key []byte, opts ReadOptions) ([]byte, error)
	// NewIterator returns a fresh iterator over [start, end) in the order
	// given by opts.Reverse. A nil bound is unbounded.
	NewIterator(start, end []byte, opts ReadOptions) (Iterator, error)
	Close() error
}

// Iterator provides sequential access over a range of key-value pairs.
// The first call to Next positions the iterator on the first entry.
// Iterators must be closed after use; Close returns ErrClosed once if the
// store was closed first.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
