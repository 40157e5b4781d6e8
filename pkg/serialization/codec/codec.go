package codec

// Codec maps Go values to byte sequences and back.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// OrderedCodec is a Codec whose encoding preserves the natural order of the
// values it encodes: a < b exactly when Marshal(a) sorts before Marshal(b)
// byte by byte. Only ordered codecs can encode keys.
type OrderedCodec interface {
	Codec
	OrderPreserving()
}
