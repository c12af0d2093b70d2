// Command tablestore is an operator tool for the partitioned key-value store.
// Values are handled as JSON documents; how they are stored is selected by
// the --value-* flags.
//
//	tablestore --dir ./data put users alice '{"name":"alice"}'
//	tablestore --dir ./data scan users adm
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/eigerco/tablestore/internal/config"
	"github.com/eigerco/tablestore/internal/store"
	"github.com/eigerco/tablestore/pkg/db"
	"github.com/eigerco/tablestore/pkg/db/pebble"
	"github.com/eigerco/tablestore/pkg/log"
)

// Exit codes
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitStartup  = 3
	ExitNotFound = 4
)

const usage = `Usage: tablestore [global flags] <command> [args]

Commands:
  config [file.yaml]                 print or save the effective configuration
  partitions                         list declared partitions
  put <partition> [key] <json>       store a value, a key is generated when omitted
  get <partition> <key>              print a value
  delete <partition> <key>           delete a key
  exists <partition> <key>           print whether a key exists
  count <partition>                  count the entries of a partition
  scan <partition> [prefix]          print entries, optionally by key prefix
  import <partition> <file.json>     store every member of a JSON object atomically
  purge <partition> <key>...         delete keys atomically
  stats                              print engine metrics

Global flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stderr)
			return ExitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsage
	}
	if len(rest) == 0 {
		printUsage(stderr)
		return ExitUsage
	}

	logOpts := cfg.LogOptions()
	logOpts.Output = stderr
	log.Init(logOpts)

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", rest[0])
		printUsage(stderr)
		return ExitUsage
	}
	if len(rest)-1 < cmd.minArgs || (cmd.maxArgs >= 0 && len(rest)-1 > cmd.maxArgs) {
		fmt.Fprintf(stderr, "Usage: tablestore %s\n", cmd.usage)
		return ExitUsage
	}

	values, err := valueCodec(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitStartup
	}
	e := &env{cfg: cfg, values: values, stdout: stdout}

	if !cmd.offline {
		// A partially opened engine never serves a command.
		engine, err := pebble.Open(cfg.EngineOptions(), store.Partitions())
		if err != nil {
			log.CLI.Error().Err(err).Msg("cannot open engine")
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitStartup
		}
		defer func() {
			if err := engine.Close(); err != nil {
				fmt.Fprintf(stderr, "Warning: %v\n", err)
			}
		}()
		e.engine = engine
	}

	if err := cmd.run(e, rest[1:]); err != nil {
		if errors.Is(err, errNotFound) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitNotFound
		}
		log.CLI.Debug().Err(err).Str("command", rest[0]).Msg("command failed")
		fmt.Fprintf(stderr, "Error: %v\n", describe(err))
		return ExitFailure
	}
	return ExitOK
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, usage)
	config.PrintDefaults(w)
}

// describe prefixes storage failures with their class.
func describe(err error) string {
	switch {
	case errors.Is(err, db.ErrCodec):
		return fmt.Sprintf("stored value cannot be decoded with the current --value-* settings: %v", err)
	case errors.Is(err, db.ErrStorageRead), errors.Is(err, db.ErrStorageWrite):
		return fmt.Sprintf("storage failure, safe to retry: %v", err)
	default:
		return err.Error()
	}
}
