package db

import "errors"

var (
	ErrClosed          = errors.New("kv-store: database is closed")
	ErrNotFound        = errors.New("kv-store: key not found")
	ErrBatchDone       = errors.New("kv-store: batch already committed or closed")
	ErrIteratorInvalid = errors.New("kv-store: iterator is not positioned on an entry")
	ErrSnapshotClosed  = errors.New("kv-store: snapshot is closed")
	ErrStoreExists     = errors.New("kv-store: store already exists")
	ErrStoreMissing    = errors.New("kv-store: store does not exist")
)

const (
	ErrInIteratorCreation = "failed to create iterator: %w"
	ErrIteratorValue      = "failed to read iterator value: %w"
	ErrFailedBatchCommit  = "failed to commit batch: %w"
	ErrFailedOpen         = "failed to open %s store at %q: %w"
)
