package serialization

import (
	"github.com/eigerco/tablestore/pkg/db"
	"github.com/eigerco/tablestore/pkg/serialization/codec"
)

// Serializer provides methods to encode and decode using a specified codec.
// Failures are reported as db.ErrCodec errors carrying the operation and key.
type Serializer[V any] struct {
	codec codec.Codec[V]
}

// NewSerializer initializes a new Serializer with the given codec.
func NewSerializer[V any](c codec.Codec[V]) *Serializer[V] {
	return &Serializer[V]{codec: c}
}

// Encode serializes the value stored under key.
func (s *Serializer[V]) Encode(op, key string, v V) ([]byte, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, db.CodecError(op, key, err)
	}
	return data, nil
}

// Decode deserializes the payload read from key.
func (s *Serializer[V]) Decode(op, key string, data []byte) (V, error) {
	v, err := s.codec.Decode(data)
	if err != nil {
		var zero V
		return zero, db.CodecError(op, key, err)
	}
	return v, nil
}
