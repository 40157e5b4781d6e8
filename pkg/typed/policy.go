package typed

// DecodePolicy decides what enumeration does with entries whose key or
// value fails to decode.
type DecodePolicy uint8

const (
	// SkipMalformed drops such entries and carries on.
	SkipMalformed DecodePolicy = iota
	// FailFast stops at the first such entry with an ErrMalformed error.
	FailFast
)

func (p DecodePolicy) String() string {
	switch p {
	case SkipMalformed:
		return "skip"
	case FailFast:
		return "fail-fast"
	}
	return "unknown"
}

type Option func(*config)

type config struct {
	policy DecodePolicy
}

// WithDecodePolicy sets how enumeration treats malformed entries.
func WithDecodePolicy(p DecodePolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}
