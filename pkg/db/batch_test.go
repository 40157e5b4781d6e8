package db

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/lexkv/internal/testutils"
)

// diff renders the batch as "key=value" or "key=<deleted>" lines.
func diff(b *WriteBatch) []string {
	var out []string
	b.Enumerate(func(op Op) {
		if op.Delete {
			out = append(out, string(op.Key)+"=<deleted>")
			return
		}
		out = append(out, string(op.Key)+"="+string(op.Value))
	})
	return out
}

func TestWriteBatchDiff(t *testing.T) {
	batch := NewWriteBatch()
	batch.Put([]byte("foo"), []byte("bar"))
	batch.Delete([]byte("foo"))
	assert.Equal(t, []string{"foo=<deleted>"}, diff(batch))

	batch.Put([]byte("qux"), []byte("abc"))
	batch.Delete([]byte("def"))
	batch.Delete([]byte("bar"))
	batch.Put([]byte("foo"), []byte("def"))

	assert.Equal(t, []string{
		"bar=<deleted>",
		"def=<deleted>",
		"foo=def",
		"qux=abc",
	}, diff(batch))
	assert.Equal(t, 4, batch.Len())
}

func TestWriteBatchOrderIndependence(t *testing.T) {
	type call struct {
		key    string
		value  string
		delete bool
	}
	// k is written twice with v2 last, j is deleted once
	calls := []call{
		{key: "k", value: "v1"},
		{key: "k", value: "v2"},
		{key: "j", delete: true},
		{key: "k", value: "v2"},
	}
	expected := []string{"j=<deleted>", "k=v2"}

	apply := func(order []call) *WriteBatch {
		b := NewWriteBatch()
		for _, c := range order {
			if c.delete {
				b.Delete([]byte(c.key))
			} else {
				b.Put([]byte(c.key), []byte(c.value))
			}
		}
		return b
	}
	assert.Equal(t, expected, diff(apply(calls)))

	// every permutation keeping the relative order of the k writes
	kWrites := []call{calls[0], calls[1], calls[3]}
	for pos := 0; pos <= len(kWrites); pos++ {
		order := append([]call{}, kWrites[:pos]...)
		order = append(order, calls[2])
		order = append(order, kWrites[pos:]...)
		assert.Equal(t, expected, diff(apply(order)), "delete(j) at %d", pos)
	}
}

func TestWriteBatchSortedAndDeduplicated(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	batch := NewWriteBatch()
	last := map[string]string{}
	for i := 0; i < 2000; i++ {
		k := fmt.Sprintf("%03d", rng.Intn(300))
		if rng.Intn(4) == 0 {
			batch.Delete([]byte(k))
			last[k] = "<deleted>"
			continue
		}
		v := fmt.Sprintf("v%d", i)
		batch.Put([]byte(k), []byte(v))
		last[k] = v
	}

	ops := batch.Ops()
	require.Len(t, ops, len(last))
	for i, op := range ops {
		if i > 0 {
			assert.Equal(t, -1, Compare(ops[i-1].Key, op.Key))
		}
		want := last[string(op.Key)]
		if op.Delete {
			assert.Equal(t, "<deleted>", want)
			assert.Nil(t, op.Value)
		} else {
			assert.Equal(t, want, string(op.Value))
		}
	}
}

func TestWriteBatchCopiesInput(t *testing.T) {
	key, value := []byte("key"), []byte("value")
	batch := NewWriteBatch()
	batch.Put(key, value)
	key[0], value[0] = 'x', 'x'

	op, ok := batch.Lookup([]byte("key"))
	require.True(t, ok)
	assert.Equal(t, []byte("value"), op.Value)
	_, ok = batch.Lookup([]byte("xey"))
	assert.False(t, ok)

	ops := batch.Ops()
	ops[0].Value[0] = 'y'
	op, _ = batch.Lookup([]byte("key"))
	assert.Equal(t, []byte("value"), op.Value)
}

func TestWriteBatchBinaryValues(t *testing.T) {
	batch := NewWriteBatch()
	want := map[string][]byte{}
	for _, k := range testutils.RandomKeys(t, 64, 4) {
		v := testutils.RandomBytes(t, 32)
		batch.Put(k, v)
		want[string(k)] = v
	}

	require.Equal(t, len(want), batch.Len())
	batch.Enumerate(func(op Op) {
		assert.False(t, op.Delete)
		assert.Equal(t, want[string(op.Key)], op.Value, "key %x", op.Key)
	})
}

func TestWriteBatchEmptyKeyAndReset(t *testing.T) {
	batch := NewWriteBatch()
	batch.Put(nil, nil)
	batch.Put([]byte("a"), nil)

	op, ok := batch.Lookup([]byte{})
	require.True(t, ok)
	assert.False(t, op.Delete)
	assert.NotNil(t, op.Key)
	assert.Equal(t, []string{"=", "a="}, diff(batch))

	batch.Reset()
	assert.Zero(t, batch.Len())
	assert.Empty(t, diff(batch))
}
