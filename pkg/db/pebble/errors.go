package pebble

import "github.com/eigerco/lexkv/pkg/db"

// Errors surfaced by this backend are the shared db sentinels, re-exported so
// callers holding a *KVStore can match them without importing db.
var (
	ErrClosed          = db.ErrClosed
	ErrNotFound        = db.ErrNotFound
	ErrBatchDone       = db.ErrBatchDone
	ErrIteratorInvalid = db.ErrIteratorInvalid
)
