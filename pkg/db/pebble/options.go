package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"
)

// Compression selects the block compression of the engine's table files.
type Compression string

const (
	CompressionOff       Compression = "off"
	CompressionFastBlock Compression = "fast-block"
)

// ParseCompression maps a configuration value onto a Compression.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case CompressionOff, CompressionFastBlock:
		return c, nil
	case "":
		return CompressionFastBlock, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

func (c Compression) toPebble() (pebble.Compression, error) {
	switch c {
	case CompressionOff:
		return pebble.NoCompression, nil
	case CompressionFastBlock, "":
		return pebble.SnappyCompression, nil
	default:
		return pebble.NoCompression, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
	}
}

// Options tune the engine. None of them affect correctness.
type Options struct {
	// Dir is the engine directory, created on open when missing.
	Dir         string
	Compression Compression
	// WriteBufferBytes is the memtable size, 0 keeps the engine default.
	WriteBufferBytes uint64
	// BlockCacheBytes is the shared block cache size, 0 keeps the engine default.
	BlockCacheBytes int64
	// BloomFilterBitsPerKey enables table bloom filters when > 0.
	BloomFilterBitsPerKey int
	// Sync fsyncs the WAL on every write.
	Sync bool
	// InMemory keeps all files in memory, Dir is ignored.
	InMemory bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Dir:                   "data",
		Compression:           CompressionFastBlock,
		WriteBufferBytes:      32 * 1024 * 1024,  // 32MB
		BlockCacheBytes:       64 * 1024 * 1024,  // 64MB
		BloomFilterBitsPerKey: 10,
		Sync:                  true,
	}
}

// pebbleOptions builds the engine options. The returned cache, if any, holds
// a reference that the caller releases once the engine is open.
func (o Options) pebbleOptions() (*pebble.Options, *pebble.Cache, error) {
	compression, err := o.Compression.toPebble()
	if err != nil {
		return nil, nil, err
	}

	opts := &pebble.Options{}
	if o.WriteBufferBytes > 0 {
		opts.MemTableSize = o.WriteBufferBytes
	}

	var cache *pebble.Cache
	if o.BlockCacheBytes > 0 {
		cache = pebble.NewCache(o.BlockCacheBytes)
		opts.Cache = cache
	}

	opts.Levels = make([]pebble.LevelOptions, 7)
	for i := range opts.Levels {
		l := &opts.Levels[i]
		l.Compression = compression
		if o.BloomFilterBitsPerKey > 0 {
			l.FilterPolicy = bloom.FilterPolicy(o.BloomFilterBitsPerKey)
			l.FilterType = pebble.TableFilter
		}
	}

	if o.InMemory {
		opts.FS = vfs.NewMem()
	}
	return opts, cache, nil
}

func (o Options) writeOptions() *pebble.WriteOptions {
	if o.Sync {
		return pebble.Sync
	}
	return pebble.NoSync
}
