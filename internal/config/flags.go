package config

import (
	"io"

	flag "github.com/spf13/pflag"
)

// newFlagSet declares the global flags. Values land in a copy of the
// defaults so that only flags given on the command line override the file.
//
// Supported flags:
//
//	-c, --config string              YAML config file
//	-d, --dir string                 engine directory
//	    --compression string         off | fast-block
//	    --write-buffer-bytes uint    memtable size
//	    --block-cache-bytes int      block cache size
//	    --bloom-bits int             bloom filter bits per key, 0 disables
//	    --sync                       fsync every write
//	    --in-memory                  keep everything in memory
//	    --value-codec string         json | proto
//	    --value-checksum             frame values with an xxh3 checksum
//	    --value-compression string   none | snappy | zstd | lz4
//	    --log-level string           zerolog level
//	    --log-format string          console | json
func newFlagSet(defaults *Config) (*flag.FlagSet, *Config, *string) {
	fs := flag.NewFlagSet("tablestore", flag.ContinueOnError)
	// stop at the first command so its own arguments are left alone
	fs.SetInterspersed(false)
	// the caller prints usage and errors
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	flagged := *defaults
	configPath := fs.StringP("config", "c", "", "YAML config file")
	fs.StringVarP(&flagged.Engine.Dir, "dir", "d", defaults.Engine.Dir, "engine directory")
	fs.StringVar(&flagged.Engine.Compression, "compression", defaults.Engine.Compression, "block compression: off or fast-block")
	fs.Uint64Var(&flagged.Engine.WriteBufferBytes, "write-buffer-bytes", defaults.Engine.WriteBufferBytes, "memtable size in bytes")
	fs.Int64Var(&flagged.Engine.BlockCacheBytes, "block-cache-bytes", defaults.Engine.BlockCacheBytes, "block cache size in bytes")
	fs.IntVar(&flagged.Engine.BloomFilterBitsPerKey, "bloom-bits", defaults.Engine.BloomFilterBitsPerKey, "bloom filter bits per key, 0 disables")
	fs.BoolVar(&flagged.Engine.Sync, "sync", defaults.Engine.Sync, "fsync every write")
	fs.BoolVar(&flagged.Engine.InMemory, "in-memory", defaults.Engine.InMemory, "keep all data in memory")
	fs.StringVar(&flagged.Values.Codec, "value-codec", defaults.Values.Codec, "value codec: json or proto")
	fs.BoolVar(&flagged.Values.Checksum, "value-checksum", defaults.Values.Checksum, "frame values with an xxh3 checksum")
	fs.StringVar(&flagged.Values.Compression, "value-compression", defaults.Values.Compression, "value compression: none, snappy, zstd or lz4")
	fs.StringVar(&flagged.Log.Level, "log-level", defaults.Log.Level, "log level")
	fs.StringVar(&flagged.Log.Format, "log-format", defaults.Log.Format, "log format: console or json")
	return fs, &flagged, configPath
}

// applyFlags copies the flags that were set on the command line into cfg.
func applyFlags(fs *flag.FlagSet, cfg *Config, flagged *Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Engine.Dir = flagged.Engine.Dir
		case "compression":
			cfg.Engine.Compression = flagged.Engine.Compression
		case "write-buffer-bytes":
			cfg.Engine.WriteBufferBytes = flagged.Engine.WriteBufferBytes
		case "block-cache-bytes":
			cfg.Engine.BlockCacheBytes = flagged.Engine.BlockCacheBytes
		case "bloom-bits":
			cfg.Engine.BloomFilterBitsPerKey = flagged.Engine.BloomFilterBitsPerKey
		case "sync":
			cfg.Engine.Sync = flagged.Engine.Sync
		case "in-memory":
			cfg.Engine.InMemory = flagged.Engine.InMemory
		case "value-codec":
			cfg.Values.Codec = flagged.Values.Codec
		case "value-checksum":
			cfg.Values.Checksum = flagged.Values.Checksum
		case "value-compression":
			cfg.Values.Compression = flagged.Values.Compression
		case "log-level":
			cfg.Log.Level = flagged.Log.Level
		case "log-format":
			cfg.Log.Format = flagged.Log.Format
		}
	})
}

// PrintDefaults writes the flag help to w.
func PrintDefaults(w io.Writer) {
	fs, _, _ := newFlagSet(Default())
	fs.SetOutput(w)
	fs.PrintDefaults()
}
