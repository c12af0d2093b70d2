// Package config loads the engine and logging settings: defaults first, then
// an optional YAML file, then command-line flags.
package config

import (
	"fmt"

	"github.com/eigerco/tablestore/pkg/db/pebble"
	"github.com/eigerco/tablestore/pkg/log"
	"github.com/eigerco/tablestore/pkg/serialization/codec"
)

// Value codecs.
const (
	CodecJSON  = "json"
	CodecProto = "proto"
)

// Config holds runtime settings.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Values ValuesConfig `yaml:"values"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig mirrors pebble.Options in a file-friendly form.
type EngineConfig struct {
	Dir                   string `yaml:"dir"`
	Compression           string `yaml:"compression"`
	WriteBufferBytes      uint64 `yaml:"write_buffer_bytes"`
	BlockCacheBytes       int64  `yaml:"block_cache_bytes"`
	BloomFilterBitsPerKey int    `yaml:"bloom_filter_bits_per_key"`
	Sync                  bool   `yaml:"sync"`
	InMemory              bool   `yaml:"in_memory"`
}

// ValuesConfig selects how stored values are encoded. Existing data can only
// be read back with the settings it was written with.
type ValuesConfig struct {
	// Codec is "json" or "proto".
	Codec string `yaml:"codec"`
	// Checksum frames every value with an xxh3 checksum.
	Checksum bool `yaml:"checksum"`
	// Compression is none, snappy, zstd or lz4.
	Compression string `yaml:"compression"`
}

type LogConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	o := pebble.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			Dir:                   o.Dir,
			Compression:           string(o.Compression),
			WriteBufferBytes:      o.WriteBufferBytes,
			BlockCacheBytes:       o.BlockCacheBytes,
			BloomFilterBitsPerKey: o.BloomFilterBitsPerKey,
			Sync:                  o.Sync,
		},
		Values: ValuesConfig{
			Codec:       CodecJSON,
			Compression: codec.None.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the values that can be wrong.
func (c *Config) Validate() error {
	if !c.Engine.InMemory && c.Engine.Dir == "" {
		return fmt.Errorf("engine.dir is required")
	}
	if _, err := pebble.ParseCompression(c.Engine.Compression); err != nil {
		return err
	}
	if c.Engine.BloomFilterBitsPerKey < 0 {
		return fmt.Errorf("engine.bloom_filter_bits_per_key must not be negative")
	}
	if c.Engine.BlockCacheBytes < 0 {
		return fmt.Errorf("engine.block_cache_bytes must not be negative")
	}
	if c.Values.Codec != CodecJSON && c.Values.Codec != CodecProto {
		return fmt.Errorf("values.codec must be %s or %s, got %q", CodecJSON, CodecProto, c.Values.Codec)
	}
	if _, err := codec.ParseAlgorithm(c.Values.Compression); err != nil {
		return fmt.Errorf("values.compression: %w", err)
	}
	if _, err := log.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := log.ParseLoggerType(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// EngineOptions converts the engine section. Call Validate first.
func (c *Config) EngineOptions() pebble.Options {
	compression, _ := pebble.ParseCompression(c.Engine.Compression)
	return pebble.Options{
		Dir:                   c.Engine.Dir,
		Compression:           compression,
		WriteBufferBytes:      c.Engine.WriteBufferBytes,
		BlockCacheBytes:       c.Engine.BlockCacheBytes,
		BloomFilterBitsPerKey: c.Engine.BloomFilterBitsPerKey,
		Sync:                  c.Engine.Sync,
		InMemory:              c.Engine.InMemory,
	}
}

// ValueCompression returns the configured value compression. Call Validate
// first.
func (c *Config) ValueCompression() codec.Algorithm {
	algo, _ := codec.ParseAlgorithm(c.Values.Compression)
	return algo
}

// LogOptions converts the log section. Call Validate first.
func (c *Config) LogOptions() log.Options {
	level, _ := log.ParseLogLevel(c.Log.Level)
	typ, _ := log.ParseLoggerType(c.Log.Format)
	return log.Options{LogLevel: level, Type: typ}
}

// Load builds a Config from defaults, the YAML file named by --config and the
// remaining flags, in that order. It returns the arguments left after the
// flags.
func Load(args []string) (*Config, []string, error) {
	cfg := Default()

	fs, flagged, configPath := newFlagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if *configPath != "" {
		if err := loadFile(cfg, *configPath); err != nil {
			return nil, nil, err
		}
	}
	applyFlags(fs, cfg, flagged)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}
