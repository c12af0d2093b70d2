package codec

import (
	"google.golang.org/protobuf/proto"
)

// Proto encodes protobuf messages in their binary wire format. V is the
// pointer type of a generated message, e.g. *wrapperspb.StringValue.
type Proto[V proto.Message] struct{}

func NewProto[V proto.Message]() Proto[V] {
	return Proto[V]{}
}

func (Proto[V]) Encode(v V) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (Proto[V]) Decode(data []byte) (V, error) {
	var zero V
	// generated messages report their type through a nil receiver
	msg, ok := zero.ProtoReflect().Type().New().Interface().(V)
	if !ok {
		return zero, ErrMalformed
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return zero, err
	}
	return msg, nil
}
