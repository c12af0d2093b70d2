package codec

import "errors"

// Codec converts values of type V to and from an opaque byte payload.
// Decode must accept anything Encode produced; byte-identical output for
// equal values is not required.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

var (
	ErrMalformed    = errors.New("codec: malformed payload")
	ErrChecksum     = errors.New("codec: checksum mismatch")
	ErrUnknownCodec = errors.New("codec: unknown compression algorithm")
)

// Layered compresses the payloads of inner with algo, unless algo is None,
// and then frames them with a checksum when framed is set.
func Layered[V any](inner Codec[V], algo Algorithm, framed bool) (Codec[V], error) {
	c := inner
	if algo != None {
		compressed, err := NewCompressed(inner, algo)
		if err != nil {
			return nil, err
		}
		c = compressed
	}
	if framed {
		c = NewFramed(c)
	}
	return c, nil
}
