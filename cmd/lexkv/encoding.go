package main

import (
	"encoding/hex"
	"fmt"
)

// encoding converts command line text to raw bytes and back. Without hex the
// text is taken as is.
type encoding struct {
	hex bool
}

func (e encoding) decode(s string) ([]byte, error) {
	if !e.hex {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

func (e encoding) encode(b []byte) string {
	if e.hex {
		return hex.EncodeToString(b)
	}
	return string(b)
}

// keyFlag is a flag holding a key; set tells an empty key apart from an
// absent flag.
type keyFlag struct {
	enc *encoding
	key []byte
	set bool
}

func (f *keyFlag) String() string {
	if f == nil || f.enc == nil || !f.set {
		return ""
	}
	return f.enc.encode(f.key)
}

func (f *keyFlag) Set(s string) error {
	b, err := f.enc.decode(s)
	if err != nil {
		return err
	}
	f.key, f.set = b, true
	return nil
}
