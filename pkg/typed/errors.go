package typed

import "errors"

// ErrMalformed marks stored bytes that the codec could not decode.
var ErrMalformed = errors.New("typed: malformed entry")

const (
	ErrEncodeKey   = "encode key: %w"
	ErrEncodeValue = "encode value: %w"
	errDecodeKey   = "%w: key %x: %v"
	errDecodeValue = "%w: value under %x: %v"
)
