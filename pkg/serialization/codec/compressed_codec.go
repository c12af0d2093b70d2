package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm tags the compression applied to a payload. The tag is stored as
// the first byte so payloads stay readable if the configured algorithm
// changes later.
type Algorithm byte

const (
	// None leaves payloads uncompressed; it is never written as a tag.
	None Algorithm = iota
	Snappy
	Zstd
	LZ4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("algorithm(%d)", byte(a))
	}
}

// ParseAlgorithm maps a configuration name onto an Algorithm. An empty name
// is None.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "", "none":
		return None, nil
	case "snappy":
		return Snappy, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

// Compressed compresses the payload of another codec.
type Compressed[V any] struct {
	inner Codec[V]
	algo  Algorithm
	zenc  *zstd.Encoder
	zdec  *zstd.Decoder
}

func NewCompressed[V any](inner Codec[V], algo Algorithm) (*Compressed[V], error) {
	if algo < Snappy || algo > LZ4 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, algo)
	}
	c := &Compressed[V]{inner: inner, algo: algo}

	// zstd is also needed to read payloads written under another setting
	var err error
	if c.zenc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest)); err != nil {
		return nil, err
	}
	if c.zdec, err = zstd.NewReader(nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compressed[V]) Encode(v V) ([]byte, error) {
	payload, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}

	out := []byte{byte(c.algo)}
	switch c.algo {
	case Snappy:
		return append(out, snappy.Encode(nil, payload)...), nil
	case Zstd:
		return c.zenc.EncodeAll(payload, out), nil
	case LZ4:
		buf := bytes.NewBuffer(out)
		w := lz4.NewWriter(buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c.algo)
	}
}

func (c *Compressed[V]) Decode(data []byte) (V, error) {
	var zero V
	if len(data) == 0 {
		return zero, fmt.Errorf("%w: missing algorithm tag", ErrMalformed)
	}

	var (
		payload []byte
		err     error
	)
	switch algo := Algorithm(data[0]); algo {
	case Snappy:
		payload, err = snappy.Decode(nil, data[1:])
	case Zstd:
		payload, err = c.zdec.DecodeAll(data[1:], nil)
	case LZ4:
		payload, err = io.ReadAll(lz4.NewReader(bytes.NewReader(data[1:])))
	default:
		return zero, fmt.Errorf("%w: %s", ErrUnknownCodec, algo)
	}
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return c.inner.Decode(payload)
}
