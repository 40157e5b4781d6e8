package db

import "bytes"

// Compare orders byte sequences lexicographically. A strict prefix sorts
// before any of its extensions and the empty sequence sorts first.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// NextSibling returns the big-endian increment of b: trailing 0xFF bytes roll
// over to 0x00 and the last non-0xFF byte before them is incremented, keeping
// the width of b. No sibling exists when every byte of b is 0xFF, which
// includes the empty sequence.
func NextSibling(b []byte) ([]byte, bool) {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xFF {
			out := make([]byte, len(b))
			copy(out, b[:i])
			out[i] = b[i] + 1
			return out, true
		}
	}
	return nil, false
}

// FirstChild returns b followed by a single zero byte: the smallest sequence
// that has b as a strict prefix.
func FirstChild(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	return out
}

// PrefixEnd returns the smallest sequence greater than every sequence that
// starts with p. It is NextSibling(p) without the rolled-over zero bytes.
// There is no such bound when p is empty or made only of 0xFF bytes.
func PrefixEnd(p []byte) ([]byte, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0xFF {
			out := make([]byte, i+1)
			copy(out, p[:i])
			out[i] = p[i] + 1
			return out, true
		}
	}
	return nil, false
}

// HasPrefix reports whether key starts with prefix.
func HasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}
