package codec

import "errors"

var (
	ErrUnsupportedType = errors.New("codec: unsupported type")
	ErrInvalidLength   = errors.New("codec: invalid length")
	ErrInvalidUTF8     = errors.New("codec: invalid utf-8")
)

const errUnsupportedType = "%w: %T"
