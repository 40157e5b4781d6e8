package codec

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// BytesCodec passes byte slices through unchanged.
type BytesCodec struct{}

func (BytesCodec) OrderPreserving() {}

func (BytesCodec) Marshal(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append([]byte{}, b...), nil
	case *[]byte:
		return append([]byte{}, (*b)...), nil
	}
	return nil, fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
}

func (BytesCodec) Unmarshal(data []byte, v interface{}) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	*b = append([]byte{}, data...)
	return nil
}

// StringCodec stores strings as their UTF-8 bytes. Both directions reject
// invalid UTF-8, so everything it writes reads back.
type StringCodec struct{}

func (StringCodec) OrderPreserving() {}

func (StringCodec) Marshal(v interface{}) ([]byte, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case *string:
		s = *x
	default:
		return nil, fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	if !utf8.ValidString(s) {
		return nil, ErrInvalidUTF8
	}
	return []byte(s), nil
}

func (StringCodec) Unmarshal(data []byte, v interface{}) error {
	s, ok := v.(*string)
	if !ok {
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	if !utf8.Valid(data) {
		return ErrInvalidUTF8
	}
	*s = string(data)
	return nil
}

// Uint64Codec stores uint64 values as 8 big-endian bytes.
type Uint64Codec struct{}

func (Uint64Codec) OrderPreserving() {}

func (Uint64Codec) Marshal(v interface{}) ([]byte, error) {
	var n uint64
	switch x := v.(type) {
	case uint64:
		n = x
	case *uint64:
		n = *x
	default:
		return nil, fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	return binary.BigEndian.AppendUint64(nil, n), nil
}

func (Uint64Codec) Unmarshal(data []byte, v interface{}) error {
	n, ok := v.(*uint64)
	if !ok {
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	if len(data) != 8 {
		return fmt.Errorf("%w: %d bytes for uint64", ErrInvalidLength, len(data))
	}
	*n = binary.BigEndian.Uint64(data)
	return nil
}

// Int64Codec stores int64 values as 8 big-endian bytes with the sign bit
// flipped, so negative numbers sort before positive ones.
type Int64Codec struct{}

const signBit = uint64(1) << 63

func (Int64Codec) OrderPreserving() {}

func (Int64Codec) Marshal(v interface{}) ([]byte, error) {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case *int64:
		n = *x
	default:
		return nil, fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	return binary.BigEndian.AppendUint64(nil, uint64(n)^signBit), nil
}

func (Int64Codec) Unmarshal(data []byte, v interface{}) error {
	n, ok := v.(*int64)
	if !ok {
		return fmt.Errorf(errUnsupportedType, ErrUnsupportedType, v)
	}
	if len(data) != 8 {
		return fmt.Errorf("%w: %d bytes for int64", ErrInvalidLength, len(data))
	}
	*n = int64(binary.BigEndian.Uint64(data) ^ signBit)
	return nil
}
