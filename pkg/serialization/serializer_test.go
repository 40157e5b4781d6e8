package serialization_test

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/lexkv/pkg/serialization"
	"github.com/eigerco/lexkv/pkg/serialization/codec"
)

type PayloadExample struct {
	ID   int    `json:"id" cbor:"1,keyasint"`
	Data []byte `json:"data" cbor:"2,keyasint"`
}

func TestJSONSerializer(t *testing.T) {
	serializer := serialization.NewSerializer[PayloadExample](&codec.JSONCodec{})

	example := PayloadExample{ID: 1, Data: []byte{1, 2, 3}}

	encoded, err := serializer.Encode(example)
	require.NoError(t, err)
	require.NotNil(t, encoded)

	decoded, err := serializer.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, example, decoded)

	_, err = serializer.Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestCBORSerializer(t *testing.T) {
	cborCodec, err := codec.NewCBORCodec()
	require.NoError(t, err)
	serializer := serialization.NewSerializer[PayloadExample](cborCodec)

	example := PayloadExample{ID: 2, Data: []byte{1, 2, 3}}

	encoded, err := serializer.Encode(example)
	require.NoError(t, err)
	again, err := serializer.Encode(example)
	require.NoError(t, err)
	assert.Equal(t, encoded, again, "encoding must be deterministic")

	decoded, err := serializer.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, example, decoded)

	_, err = serializer.Decode([]byte{0xFF, 0x00})
	assert.Error(t, err)
}

func TestStringKeySerializer(t *testing.T) {
	serializer := serialization.NewKeySerializer[string](codec.StringCodec{})

	encoded, err := serializer.Encode("/people/foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("/people/foo"), encoded)

	decoded, err := serializer.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "/people/foo", decoded)

	_, err = serializer.Decode([]byte{0xC3, 0x28})
	assert.ErrorIs(t, err, codec.ErrInvalidUTF8)

	// what cannot be decoded is not encoded either
	_, err = serializer.Encode("a\xff")
	assert.ErrorIs(t, err, codec.ErrInvalidUTF8)
	invalid := string([]byte{0xC3, 0x28})
	_, err = serializer.Encode(invalid)
	assert.ErrorIs(t, err, codec.ErrInvalidUTF8)
}

func TestBytesKeySerializer(t *testing.T) {
	serializer := serialization.NewKeySerializer[[]byte](codec.BytesCodec{})

	in := []byte{0x00, 0xFF}
	encoded, err := serializer.Encode(in)
	require.NoError(t, err)
	encoded[0] = 0x01
	assert.Equal(t, []byte{0x00, 0xFF}, in)

	decoded, err := serializer.Decode([]byte{})
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestOrderedCodecs(t *testing.T) {
	t.Run("uint64", func(t *testing.T) {
		serializer := serialization.NewKeySerializer[uint64](codec.Uint64Codec{})
		values := []uint64{0, 1, 255, 256, 1 << 32, math.MaxUint64 - 1, math.MaxUint64}
		assertOrderPreserved(t, len(values), func(i int) []byte {
			b, err := serializer.Encode(values[i])
			require.NoError(t, err)
			decoded, err := serializer.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, values[i], decoded)
			return b
		})

		_, err := serializer.Decode([]byte{1, 2, 3})
		assert.ErrorIs(t, err, codec.ErrInvalidLength)
	})

	t.Run("int64", func(t *testing.T) {
		serializer := serialization.NewKeySerializer[int64](codec.Int64Codec{})
		values := []int64{math.MinInt64, -1 << 40, -256, -1, 0, 1, 255, 1 << 40, math.MaxInt64}
		assertOrderPreserved(t, len(values), func(i int) []byte {
			b, err := serializer.Encode(values[i])
			require.NoError(t, err)
			decoded, err := serializer.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, values[i], decoded)
			return b
		})

		_, err := serializer.Decode(nil)
		assert.ErrorIs(t, err, codec.ErrInvalidLength)
	})

	t.Run("string", func(t *testing.T) {
		serializer := serialization.NewKeySerializer[string](codec.StringCodec{})
		values := []string{"", "1", "a", "ab", "b", "é"}
		assertOrderPreserved(t, len(values), func(i int) []byte {
			b, err := serializer.Encode(values[i])
			require.NoError(t, err)
			return b
		})
	})
}

// assertOrderPreserved checks that encodings of values given in ascending
// order are already sorted.
func assertOrderPreserved(t *testing.T, n int, encode func(i int) []byte) {
	t.Helper()
	encoded := make([][]byte, n)
	for i := range encoded {
		encoded[i] = encode(i)
	}
	assert.True(t, sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}))
	for i := 1; i < n; i++ {
		assert.Equal(t, -1, bytes.Compare(encoded[i-1], encoded[i]), "index %d", i)
	}
}

func TestUnsupportedTypes(t *testing.T) {
	codecs := []codec.OrderedCodec{codec.BytesCodec{}, codec.StringCodec{}, codec.Uint64Codec{}, codec.Int64Codec{}}
	for _, c := range codecs {
		_, err := c.Marshal(struct{}{})
		assert.ErrorIs(t, err, codec.ErrUnsupportedType, "%T", c)
		var f float64
		assert.ErrorIs(t, c.Unmarshal([]byte{}, &f), codec.ErrUnsupportedType, "%T", c)
	}
}
