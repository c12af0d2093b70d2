package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/tablestore/pkg/db/pebble"
	"github.com/eigerco/tablestore/pkg/log"
	"github.com/eigerco/tablestore/pkg/serialization/codec"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, rest, err := Load([]string{"get", "users", "k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"get", "users", "k"}, rest)
	assert.Equal(t, Default(), cfg)

	opts := cfg.EngineOptions()
	assert.Equal(t, pebble.DefaultOptions(), opts)
}

func TestLoadFileThenFlags(t *testing.T) {
	path := writeConfig(t, `
engine:
  dir: /var/lib/tablestore
  compression: "off"
  bloom_filter_bits_per_key: 0
log:
  level: debug
  format: json
`)

	cfg, rest, err := Load([]string{"-c", path, "--dir", "/tmp/override", "count", "users"})
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "users"}, rest)

	// flag wins over file
	assert.Equal(t, "/tmp/override", cfg.Engine.Dir)
	// file wins over defaults
	assert.Equal(t, "off", cfg.Engine.Compression)
	assert.Zero(t, cfg.Engine.BloomFilterBitsPerKey)
	// untouched keys keep defaults
	assert.Equal(t, Default().Engine.BlockCacheBytes, cfg.Engine.BlockCacheBytes)

	opts := cfg.EngineOptions()
	assert.Equal(t, pebble.CompressionOff, opts.Compression)

	logOpts := cfg.LogOptions()
	assert.Equal(t, zerolog.DebugLevel, logOpts.LogLevel)
	assert.Equal(t, log.JSONLogger, logOpts.Type)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{
			name: "unknown_flag",
			args: func(*testing.T) []string { return []string{"--nope"} },
		},
		{
			name: "missing_file",
			args: func(t *testing.T) []string {
				return []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}
			},
		},
		{
			name: "unknown_key",
			args: func(t *testing.T) []string {
				return []string{"--config", writeConfig(t, "engine:\n  dirr: x\n")}
			},
		},
		{
			name: "bad_compression",
			args: func(*testing.T) []string { return []string{"--compression", "gzip"} },
		},
		{
			name: "bad_level",
			args: func(*testing.T) []string { return []string{"--log-level", "loud"} },
		},
		{
			name: "bad_format",
			args: func(*testing.T) []string { return []string{"--log-format", "xml"} },
		},
		{
			name: "bad_value_codec",
			args: func(*testing.T) []string { return []string{"--value-codec", "xml"} },
		},
		{
			name: "bad_value_compression",
			args: func(*testing.T) []string { return []string{"--value-compression", "brotli"} },
		},
		{
			name: "no_dir",
			args: func(*testing.T) []string { return []string{"--dir", ""} },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Load(tc.args(t))
			assert.Error(t, err)
		})
	}
}

func TestInMemoryNeedsNoDir(t *testing.T) {
	cfg, _, err := Load([]string{"--in-memory", "--dir", ""})
	require.NoError(t, err)
	assert.True(t, cfg.EngineOptions().InMemory)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Engine.Dir = "/data"
	cfg.Log.Format = "json"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(cfg, path))

	loaded, _, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadValues(t *testing.T) {
	cfg, _, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, CodecJSON, cfg.Values.Codec)
	assert.False(t, cfg.Values.Checksum)
	assert.Equal(t, codec.None, cfg.ValueCompression())

	path := writeConfig(t, `
values:
  codec: proto
  compression: snappy
`)
	cfg, _, err = Load([]string{"-c", path, "--value-checksum", "--value-compression", "zstd"})
	require.NoError(t, err)
	assert.Equal(t, CodecProto, cfg.Values.Codec)
	assert.True(t, cfg.Values.Checksum)
	assert.Equal(t, codec.Zstd, cfg.ValueCompression())
}

func TestHelpPrintsNothing(t *testing.T) {
	fs, _, _ := newFlagSet(Default())
	var buf bytes.Buffer
	fs.SetOutput(&buf)

	err := fs.Parse([]string{"--help"})
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Empty(t, buf.String())

	_, _, err = Load([]string{"--help"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Default()))
	assert.Contains(t, buf.String(), "engine:\n  dir: data\n")
	assert.Contains(t, buf.String(), "values:\n  codec: json\n")
}
