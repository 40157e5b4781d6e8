package db

import (
	"errors"
	"slices"
	"sync"

	"github.com/eigerco/lexkv/pkg/log"
)

// Handles tracks the snapshots and iterators a backend has handed out, so
// closing the store can release the ones callers left open. The zero value
// is ready to use.
type Handles struct {
	mu   sync.Mutex
	next uint64
	open map[uint64]func() error
}

// Track registers release and returns the id to untrack it with.
func (h *Handles) Track(release func() error) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		h.open = make(map[uint64]func() error)
	}
	h.next++
	h.open[h.next] = release
	return h.next
}

// Untrack forgets id and reports whether it was still tracked. Only the
// caller that gets true may release the handle.
func (h *Handles) Untrack(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.open[id]; !ok {
		return false
	}
	delete(h.open, id)
	return true
}

// Len returns the number of handles still open.
func (h *Handles) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.open)
}

// ReleaseAll releases every tracked handle, newest first so iterators go
// before the snapshots they read from, and forgets them.
func (h *Handles) ReleaseAll() error {
	h.mu.Lock()
	open := h.open
	h.open = nil
	h.mu.Unlock()

	if len(open) == 0 {
		return nil
	}
	log.Store.Warn().Int("handles", len(open)).Msg("releasing snapshots and iterators left open")

	ids := make([]uint64, 0, len(open))
	for id := range open {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var errs []error
	for i := len(ids) - 1; i >= 0; i-- {
		if err := open[ids[i]](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
