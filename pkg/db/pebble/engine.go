package pebble

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"

	"github.com/eigerco/tablestore/pkg/db"
	"github.com/eigerco/tablestore/pkg/log"
)

// catalogTag is the namespace length byte reserved for the partition catalog.
// Partition ids are never empty so no partition namespace starts with it.
const catalogTag byte = 0

// Engine owns the pebble instance and every partition handle opened on it.
// It is created once per process and shared by all repositories.
type Engine struct {
	db  *pebble.DB
	wo  *pebble.WriteOptions
	log zerolog.Logger

	mu     sync.RWMutex
	closed bool

	// handles in acquisition order
	handles []*Partition
	byName  map[string]*Partition
}

// Open opens the engine in opts.Dir and makes sure every declared partition
// exists, creating the missing ones. Any failure is reported as a
// db.ErrStorageInit error and leaves nothing open.
func Open(opts Options, partitions []db.Partition) (*Engine, error) {
	logger := log.Storage.With().Str("dir", opts.Dir).Logger()

	if err := validatePartitions(partitions); err != nil {
		return nil, db.InitError("declare partitions", err)
	}

	popts, cache, err := opts.pebbleOptions()
	if err != nil {
		return nil, db.InitError("configure engine", err)
	}
	if cache != nil {
		// the engine takes its own reference
		defer cache.Unref()
	}
	popts.Logger = engineLogger{log: logger}

	if !opts.InMemory {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, db.InitError("create directory", err)
		}
	}

	dir := opts.Dir
	if opts.InMemory && dir == "" {
		dir = "mem"
	}
	pdb, err := pebble.Open(dir, popts)
	if err != nil {
		return nil, db.InitError("open engine", err)
	}

	e := &Engine{
		db:     pdb,
		wo:     opts.writeOptions(),
		log:    logger,
		byName: make(map[string]*Partition, len(partitions)),
	}

	if err := e.openPartitions(partitions); err != nil {
		if cerr := e.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("close after failed open")
		}
		return nil, db.InitError("open partitions", err)
	}

	logger.Info().
		Int("partitions", len(partitions)).
		Str("compression", string(opts.Compression)).
		Bool("in_memory", opts.InMemory).
		Msg("engine opened")
	return e, nil
}

func validatePartitions(partitions []db.Partition) error {
	names := make(map[string]struct{}, len(partitions))
	ids := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := names[p.Name]; ok {
			return fmt.Errorf("%w: name %q", ErrDuplicatePartition, p.Name)
		}
		if _, ok := ids[string(p.ID)]; ok {
			return fmt.Errorf("%w: id %x", ErrDuplicatePartition, p.ID)
		}
		names[p.Name] = struct{}{}
		ids[string(p.ID)] = struct{}{}
	}
	return nil
}

// openPartitions checks every declared partition against the catalog and
// records the missing ones in a single batch. A declared partition must keep
// both its id and its name: an id stored under another name, or a name
// stored under another id, is a conflict.
func (e *Engine) openPartitions(partitions []db.Partition) error {
	byID, byName, err := e.readCatalog()
	if err != nil {
		return err
	}

	batch := e.db.NewBatch()
	defer func() {
		if err := batch.Close(); err != nil {
			e.log.Error().Err(err).Msg("error closing catalog batch")
		}
	}()

	var created []string
	for _, p := range partitions {
		if stored, ok := byID[string(p.ID)]; ok && stored != p.Name {
			return fmt.Errorf("%w: id %x is %q on disk, declared as %q", ErrPartitionConflict, p.ID, stored, p.Name)
		}
		if stored, ok := byName[p.Name]; ok && stored != string(p.ID) {
			return fmt.Errorf("%w: %q has id %x on disk, declared as %x", ErrPartitionConflict, p.Name, []byte(stored), p.ID)
		}
		if _, ok := byID[string(p.ID)]; ok {
			continue
		}
		if err := batch.Set(catalogKey(p.ID), []byte(p.Name), nil); err != nil {
			return fmt.Errorf("record partition %q: %w", p.Name, err)
		}
		created = append(created, p.Name)
	}

	if !batch.Empty() {
		if err := batch.Commit(pebble.Sync); err != nil {
			return fmt.Errorf(ErrFailedCatalogCommit, err)
		}
	}
	for _, name := range created {
		e.log.Info().Str("partition", name).Msg("partition created")
	}

	for _, p := range partitions {
		h := newPartition(e, p)
		e.handles = append(e.handles, h)
		e.byName[p.Name] = h
	}
	return nil
}

// readCatalog loads every recorded partition, keyed both by id and by name.
func (e *Engine) readCatalog() (byID, byName map[string]string, err error) {
	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{catalogTag},
		UpperBound: []byte{catalogTag + 1},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	defer func() {
		if cerr := iter.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("read catalog: %w", cerr)
		}
	}()

	byID = make(map[string]string)
	byName = make(map[string]string)
	for ok := iter.First(); ok; ok = iter.Next() {
		id := string(iter.Key()[1:])
		value, verr := iter.ValueAndErr()
		if verr != nil {
			return nil, nil, fmt.Errorf("read catalog: %w", verr)
		}
		name := string(value)
		byID[id] = name
		byName[name] = id
	}
	if err := iter.Error(); err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	return byID, byName, nil
}

// Partition returns the handle of a declared partition.
func (e *Engine) Partition(name string) (*Partition, error) {
	h, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPartition, name)
	}
	return h, nil
}

// Partitions returns every partition handle in declaration order.
func (e *Engine) Partitions() []*Partition {
	out := make([]*Partition, len(e.handles))
	copy(out, e.handles)
	return out
}

// Metrics returns the engine's internal metrics.
func (e *Engine) Metrics() (*pebble.Metrics, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, db.ErrClosed
	}
	return e.db.Metrics(), nil
}

// Close releases the partition handles in reverse acquisition order and then
// the engine itself. Teardown errors are logged and returned joined; Close
// always runs to the end. Closing twice is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	for i := len(e.handles) - 1; i >= 0; i-- {
		h := e.handles[i]
		if err := h.release(); err != nil {
			e.log.Error().Err(err).Str("partition", h.Name()).Msg("error releasing partition")
			errs = append(errs, err)
		}
	}

	if err := e.db.Close(); err != nil {
		e.log.Error().Err(err).Msg("error closing engine")
		errs = append(errs, err)
	}

	e.log.Info().Msg("engine closed")
	return errors.Join(errs...)
}

// readLock guards engine calls against a concurrent Close.
func (e *Engine) readLock() error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return db.ErrClosed
	}
	return nil
}

func catalogKey(id []byte) []byte {
	key := make([]byte, 1+len(id))
	key[0] = catalogTag
	copy(key[1:], id)
	return key
}

// engineLogger routes pebble's own log output to zerolog.
type engineLogger struct {
	log zerolog.Logger
}

func (l engineLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l engineLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l engineLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatal().Msgf(format, args...)
}
