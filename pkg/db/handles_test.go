package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandles(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{name: "release_newest_first", fn: func(t *testing.T) {
			var h Handles
			var order []string
			record := func(name string) func() error {
				return func() error {
					order = append(order, name)
					return nil
				}
			}
			h.Track(record("snapshot"))
			h.Track(record("iterator-1"))
			h.Track(record("iterator-2"))
			require.Equal(t, 3, h.Len())

			require.NoError(t, h.ReleaseAll())
			assert.Equal(t, []string{"iterator-2", "iterator-1", "snapshot"}, order)
			assert.Zero(t, h.Len())
			assert.NoError(t, h.ReleaseAll())
		}},
		{name: "untracked_is_not_released", fn: func(t *testing.T) {
			var h Handles
			released := 0
			id := h.Track(func() error { released++; return nil })
			h.Track(func() error { released++; return nil })

			assert.True(t, h.Untrack(id))
			assert.False(t, h.Untrack(id))
			require.NoError(t, h.ReleaseAll())
			assert.Equal(t, 1, released)
			assert.False(t, h.Untrack(id))
		}},
		{name: "errors_are_joined", fn: func(t *testing.T) {
			var h Handles
			errA, errB := errors.New("a"), errors.New("b")
			h.Track(func() error { return errA })
			h.Track(func() error { return nil })
			h.Track(func() error { return errB })

			err := h.ReleaseAll()
			assert.ErrorIs(t, err, errA)
			assert.ErrorIs(t, err, errB)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, tc.fn)
	}
}
