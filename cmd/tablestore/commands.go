package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/eigerco/tablestore/internal/config"
	"github.com/eigerco/tablestore/internal/store"
	"github.com/eigerco/tablestore/pkg/db/pebble"
	"github.com/eigerco/tablestore/pkg/serialization/codec"
)

var errNotFound = errors.New("not found")

type env struct {
	cfg    *config.Config
	engine *pebble.Engine
	values codec.Codec[json.RawMessage]
	stdout io.Writer
}

// repo opens the JSON document repository of a declared partition.
func (e *env) repo(name string) (*store.Repository[json.RawMessage], error) {
	p, ok := store.PartitionByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown partition %q", name)
	}
	return store.Open[json.RawMessage](e.engine, p, e.values)
}

// valueCodec builds the document codec selected by the values settings.
func valueCodec(cfg *config.Config) (codec.Codec[json.RawMessage], error) {
	var base codec.Codec[json.RawMessage] = codec.NewJSON[json.RawMessage]()
	if cfg.Values.Codec == config.CodecProto {
		base = protoDocument{}
	}
	return codec.Layered(base, cfg.ValueCompression(), cfg.Values.Checksum)
}

// protoDocument stores JSON documents as protobuf Value messages.
type protoDocument struct {
	msg codec.Proto[*structpb.Value]
}

func (d protoDocument) Encode(doc json.RawMessage) ([]byte, error) {
	v := &structpb.Value{}
	if err := protojson.Unmarshal(doc, v); err != nil {
		return nil, err
	}
	return d.msg.Encode(v)
}

func (d protoDocument) Decode(data []byte) (json.RawMessage, error) {
	v, err := d.msg.Decode(data)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(v)
}

type command struct {
	usage   string
	minArgs int
	// maxArgs < 0 means unbounded
	maxArgs int
	// offline commands run without opening the engine
	offline bool
	run     func(e *env, args []string) error
}

var commands = map[string]command{
	"config":     {usage: "config [file.yaml]", maxArgs: 1, offline: true, run: runConfig},
	"partitions": {usage: "partitions", maxArgs: 0, run: runPartitions},
	"put":        {usage: "put <partition> [key] <json>", minArgs: 2, maxArgs: 3, run: runPut},
	"get":        {usage: "get <partition> <key>", minArgs: 2, maxArgs: 2, run: runGet},
	"delete":     {usage: "delete <partition> <key>", minArgs: 2, maxArgs: 2, run: runDelete},
	"exists":     {usage: "exists <partition> <key>", minArgs: 2, maxArgs: 2, run: runExists},
	"count":      {usage: "count <partition>", minArgs: 1, maxArgs: 1, run: runCount},
	"scan":       {usage: "scan <partition> [prefix]", minArgs: 1, maxArgs: 2, run: runScan},
	"import":     {usage: "import <partition> <file.json>", minArgs: 2, maxArgs: 2, run: runImport},
	"purge":      {usage: "purge <partition> <key>...", minArgs: 2, maxArgs: -1, run: runPurge},
	"stats":      {usage: "stats", maxArgs: 0, run: runStats},
}

func runConfig(e *env, args []string) error {
	if len(args) == 0 {
		return config.Write(e.stdout, e.cfg)
	}
	if err := config.Save(e.cfg, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %s\n", args[0])
	return nil
}

func runPartitions(e *env, _ []string) error {
	for _, p := range e.engine.Partitions() {
		fmt.Fprintf(e.stdout, "%s\t%x\n", p.Name(), p.Definition().ID)
	}
	return nil
}

func runPut(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}

	key, doc := uuid.NewString(), args[1]
	if len(args) == 3 {
		key, doc = args[1], args[2]
	}
	if !json.Valid([]byte(doc)) {
		return fmt.Errorf("value is not valid JSON")
	}

	if err := repo.Save(key, json.RawMessage(doc)); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, key)
	return nil
}

func runGet(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	v, ok, err := repo.Find(args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s/%s: %w", args[0], args[1], errNotFound)
	}
	fmt.Fprintln(e.stdout, string(v))
	return nil
}

func runDelete(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	return repo.Delete(args[1])
}

func runExists(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	ok, err := repo.Exists(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, ok)
	return nil
}

func runCount(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	n, err := repo.Count()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, n)
	return nil
}

func runScan(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	prefix := ""
	if len(args) == 2 {
		prefix = args[1]
	}
	for entry, err := range repo.Entries(prefix) {
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s\t%s\n", entry.Key, entry.Value)
	}
	return nil
}

func runImport(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("import file must hold a JSON object: %w", err)
	}
	if err := repo.SaveAll(entries); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "imported %d entries\n", len(entries))
	return nil
}

func runPurge(e *env, args []string) error {
	repo, err := e.repo(args[0])
	if err != nil {
		return err
	}
	if err := repo.DeleteAll(args[1:]); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "purged %s\n", strings.Join(args[1:], ", "))
	return nil
}

func runStats(e *env, _ []string) error {
	m, err := e.engine.Metrics()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, m.String())
	return nil
}
