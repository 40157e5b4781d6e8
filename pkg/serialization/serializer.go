package serialization

import "github.com/eigerco/lexkv/pkg/serialization/codec"

// Serializer binds a codec to the concrete type T.
type Serializer[T any] struct {
	codec codec.Codec
}

// NewSerializer initializes a new Serializer with the given codec.
func NewSerializer[T any](c codec.Codec) *Serializer[T] {
	return &Serializer[T]{codec: c}
}

// Encode serializes the given value using the codec.
func (s *Serializer[T]) Encode(v T) ([]byte, error) {
	return s.codec.Marshal(v)
}

// Decode deserializes data into a fresh T using the codec.
func (s *Serializer[T]) Decode(data []byte) (T, error) {
	var v T
	err := s.codec.Unmarshal(data, &v)
	return v, err
}

// KeySerializer is a Serializer whose encoding preserves the order of T.
type KeySerializer[T any] struct {
	Serializer[T]
}

// NewKeySerializer initializes a KeySerializer with an order preserving codec.
func NewKeySerializer[T any](c codec.OrderedCodec) *KeySerializer[T] {
	return &KeySerializer[T]{Serializer: Serializer[T]{codec: c}}
}
