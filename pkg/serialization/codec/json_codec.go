package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSON encodes values as JSON documents.
type JSON[V any] struct {
	// Strict rejects documents with fields V does not declare.
	Strict bool
}

var _ Codec[struct{}] = JSON[struct{}]{}

func NewJSON[V any]() JSON[V] {
	return JSON[V]{}
}

func NewStrictJSON[V any]() JSON[V] {
	return JSON[V]{Strict: true}
}

func (j JSON[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (j JSON[V]) Decode(data []byte) (V, error) {
	var v V
	if !j.Strict {
		err := json.Unmarshal(data, &v)
		return v, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if _, err := dec.Token(); err != io.EOF {
		var zero V
		return zero, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return v, nil
}
