package typed

import (
	"github.com/eigerco/lexkv/pkg/serialization"
	"github.com/eigerco/lexkv/pkg/serialization/codec"
)

func StringKeys() *serialization.KeySerializer[string] {
	return serialization.NewKeySerializer[string](codec.StringCodec{})
}

func BytesKeys() *serialization.KeySerializer[[]byte] {
	return serialization.NewKeySerializer[[]byte](codec.BytesCodec{})
}

func Uint64Keys() *serialization.KeySerializer[uint64] {
	return serialization.NewKeySerializer[uint64](codec.Uint64Codec{})
}

func Int64Keys() *serialization.KeySerializer[int64] {
	return serialization.NewKeySerializer[int64](codec.Int64Codec{})
}

func StringValues() *serialization.Serializer[string] {
	return serialization.NewSerializer[string](codec.StringCodec{})
}

func BytesValues() *serialization.Serializer[[]byte] {
	return serialization.NewSerializer[[]byte](codec.BytesCodec{})
}

func JSONValues[V any]() *serialization.Serializer[V] {
	return serialization.NewSerializer[V](&codec.JSONCodec{})
}

func CBORValues[V any]() (*serialization.Serializer[V], error) {
	c, err := codec.NewCBORCodec()
	if err != nil {
		return nil, err
	}
	return serialization.NewSerializer[V](c), nil
}
