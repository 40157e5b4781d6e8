package testutils

import (
	"crypto/rand"
	"math/big"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// alphabet keeps random keys dense around the byte values where boundary
// arithmetic is interesting.
var alphabet = []byte{0x00, 0x01, 0x41, 0x7F, 0x80, 0xFE, 0xFF}

func randomInt(t *testing.T, n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	require.NoError(t, err)
	return int(v.Int64())
}

// RandomKey returns a key of up to maxLen bytes drawn from a small alphabet
// of edge values, so that shared prefixes and 0xFF runs are common.
func RandomKey(t *testing.T, maxLen int) []byte {
	key := make([]byte, randomInt(t, maxLen+1))
	for i := range key {
		key[i] = alphabet[randomInt(t, len(alphabet))]
	}
	return key
}

// RandomKeys returns n distinct random keys in ascending order.
func RandomKeys(t *testing.T, n, maxLen int) [][]byte {
	seen := make(map[string]bool, n)
	out := make([][]byte, 0, n)
	for attempts := 0; len(out) < n && attempts < n*100; attempts++ {
		k := RandomKey(t, maxLen)
		if seen[string(k)] {
			continue
		}
		seen[string(k)] = true
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i]) < string(out[j]) })
	return out
}

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(t *testing.T, n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}
