package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

const checksumLen = 8

// Framed wraps another codec in a length-prefixed frame:
//
//	uvarint(len(payload)) || payload || xxh3(payload) (8 bytes, big endian)
//
// Truncated frames, trailing bytes and corrupted payloads fail to decode.
type Framed[V any] struct {
	Inner Codec[V]
}

func NewFramed[V any](inner Codec[V]) Framed[V] {
	return Framed[V]{Inner: inner}
}

func (f Framed[V]) Encode(v V) ([]byte, error) {
	payload, err := f.Inner.Encode(v)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, binary.MaxVarintLen64+len(payload)+checksumLen)
	out = binary.AppendUvarint(out, uint64(len(payload)))
	out = append(out, payload...)
	out = binary.BigEndian.AppendUint64(out, xxh3.Hash(payload))
	return out, nil
}

func (f Framed[V]) Decode(data []byte) (V, error) {
	var zero V

	size, n := binary.Uvarint(data)
	if n <= 0 {
		return zero, fmt.Errorf("%w: bad length prefix", ErrMalformed)
	}
	rest := data[n:]
	if uint64(len(rest)) < checksumLen || uint64(len(rest))-checksumLen != size {
		return zero, fmt.Errorf("%w: frame declares %d bytes, has %d", ErrMalformed, size, len(rest))
	}

	payload := rest[:size]
	sum := binary.BigEndian.Uint64(rest[size:])
	if xxh3.Hash(payload) != sum {
		return zero, ErrChecksum
	}
	return f.Inner.Decode(payload)
}
