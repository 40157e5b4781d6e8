package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eigerco/lexkv/internal/testutils"
)

func TestNextSibling(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		expected []byte
		ok       bool
	}{
		{name: "empty", in: []byte{}, ok: false},
		{name: "nil", in: nil, ok: false},
		{name: "max_byte", in: []byte{0xFF}, ok: false},
		{name: "max_bytes", in: []byte{0xFF, 0xFF, 0xFF}, ok: false},
		{name: "zero", in: []byte{0x00}, expected: []byte{0x01}, ok: true},
		{name: "last_byte", in: []byte{0xFF, 0xFF, 0x09}, expected: []byte{0xFF, 0xFF, 0x0A}, ok: true},
		{name: "inner_carry", in: []byte{0xFF, 0x00, 0xFF}, expected: []byte{0xFF, 0x01, 0x00}, ok: true},
		{name: "double_carry", in: []byte{0x05, 0xFF, 0xFF}, expected: []byte{0x06, 0x00, 0x00}, ok: true},
		{name: "text", in: []byte("abc"), expected: []byte("abd"), ok: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := NextSibling(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestNextSiblingDoesNotAlias(t *testing.T) {
	in := []byte{0x01, 0xFF}
	out, ok := NextSibling(in)
	assert.True(t, ok)
	out[0] = 0x42
	assert.Equal(t, []byte{0x01, 0xFF}, in)
}

func TestFirstChild(t *testing.T) {
	tests := []struct {
		in       []byte
		expected []byte
	}{
		{in: nil, expected: []byte{0x00}},
		{in: []byte{}, expected: []byte{0x00}},
		{in: []byte{0x0A}, expected: []byte{0x0A, 0x00}},
		{in: []byte{0xFF}, expected: []byte{0xFF, 0x00}},
		{in: []byte("ab"), expected: []byte("ab\x00")},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, FirstChild(tc.in), "%x", tc.in)
	}
}

func TestPrefixEnd(t *testing.T) {
	tests := []struct {
		in       []byte
		expected []byte
		ok       bool
	}{
		{in: []byte{}, ok: false},
		{in: []byte{0xFF, 0xFF}, ok: false},
		{in: []byte{0x05, 0xFF, 0xFF}, expected: []byte{0x06}, ok: true},
		{in: []byte{0xFF, 0x00, 0xFF}, expected: []byte{0xFF, 0x01}, ok: true},
		{in: []byte("/people/"), expected: []byte("/people0"), ok: true},
	}
	for _, tc := range tests {
		out, ok := PrefixEnd(tc.in)
		assert.Equal(t, tc.ok, ok, "%x", tc.in)
		assert.Equal(t, tc.expected, out, "%x", tc.in)
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare(nil, []byte{}))
	assert.Equal(t, -1, Compare([]byte{}, []byte{0x00}))
	assert.Equal(t, -1, Compare([]byte("a"), []byte("ab")))
	assert.Equal(t, 1, Compare([]byte("b"), []byte("ab")))
	assert.Equal(t, -1, Compare([]byte{0x7F}, []byte{0x80}))
}

// Properties over random keys drawn around 0x00 and 0xFF.
func TestBoundaryProperties(t *testing.T) {
	keys := testutils.RandomKeys(t, 300, 5)

	for _, b := range keys {
		allMax := isAllMax(b)

		sibling, ok := NextSibling(b)
		assert.Equal(t, !allMax, ok, "%x", b)
		if ok {
			assert.Equal(t, 1, Compare(sibling, b), "%x", b)
			assert.Len(t, sibling, len(b))
			assert.False(t, HasPrefix(sibling, b), "%x", b)
		}

		end, ok := PrefixEnd(b)
		assert.Equal(t, !allMax, ok, "%x", b)
		child := FirstChild(b)
		assert.True(t, HasPrefix(child, b))
		assert.Len(t, child, len(b)+1)
		assert.Equal(t, 1, Compare(child, b))

		for _, k := range keys {
			// no key falls strictly between b and its first child
			assert.False(t, Compare(k, b) > 0 && Compare(k, child) < 0, "%x between %x and %x", k, b, child)

			if ok {
				// keys with prefix b are exactly the keys in [b, PrefixEnd(b))
				inRange := Compare(k, b) >= 0 && Compare(k, end) < 0
				assert.Equal(t, HasPrefix(k, b), inRange, "%x against prefix %x", k, b)
			}
			if sibling, ok := NextSibling(b); ok && len(k) == len(b) && Compare(k, b) > 0 && Compare(k, sibling) < 0 {
				// among keys as wide as b, none lies between b and its sibling
				assert.Fail(t, "key between sibling bounds", "%x in (%x, %x)", k, b, sibling)
			}
		}
	}
}

func isAllMax(b []byte) bool {
	for _, c := range b {
		if c != 0xFF {
			return false
		}
	}
	return true
}
