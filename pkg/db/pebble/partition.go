package pebble

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/tablestore/pkg/db"
)

// Partition is a handle on one logical partition of an Engine. All keys are
// stored under the partition namespace [len(id)][id] so that no partition's
// key range overlaps another's. Handles are owned by the Engine and released
// by Engine.Close.
type Partition struct {
	engine *Engine
	part   db.Partition
	ns     []byte
	// upper is the exclusive upper bound of the namespace, nil when unbounded.
	upper  []byte
	closed atomic.Bool

	cursorMu sync.Mutex
	cursors  map[*Iterator]struct{}
}

var _ db.KVStore = (*Partition)(nil)

func newPartition(e *Engine, p db.Partition) *Partition {
	ns := make([]byte, 1+len(p.ID))
	ns[0] = byte(len(p.ID))
	copy(ns[1:], p.ID)
	return &Partition{
		engine:  e,
		part:    p,
		ns:      ns,
		upper:   prefixSuccessor(ns),
		cursors: make(map[*Iterator]struct{}),
	}
}

func (p *Partition) Name() string { return p.part.Name }

// Definition returns the partition this handle was opened for.
func (p *Partition) Definition() db.Partition { return p.part }

// lock takes the engine read lock for the duration of one engine call.
func (p *Partition) lock() error {
	if p.closed.Load() {
		return db.ErrClosed
	}
	return p.engine.readLock()
}

func (p *Partition) unlock() { p.engine.mu.RUnlock() }

func (p *Partition) key(k []byte) []byte {
	key := make([]byte, len(p.ns)+len(k))
	copy(key, p.ns)
	copy(key[len(p.ns):], k)
	return key
}

// Get returns a copy of the value stored under key or db.ErrNotFound.
func (p *Partition) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, db.ErrEmptyKey
	}
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	value, closer, err := p.engine.db.Get(p.key(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck // closer only releases the read handle

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Has reports whether key exists with a single point lookup.
func (p *Partition) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, db.ErrEmptyKey
	}
	if err := p.lock(); err != nil {
		return false, err
	}
	defer p.unlock()

	_, closer, err := p.engine.db.Get(p.key(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (p *Partition) Put(key, value []byte) error {
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	return p.engine.db.Set(p.key(key), value, p.engine.wo)
}

// Delete removes key. Deleting a missing key is not an error.
func (p *Partition) Delete(key []byte) error {
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	return p.engine.db.Delete(p.key(key), p.engine.wo)
}

func (p *Partition) track(it *Iterator) {
	p.cursorMu.Lock()
	p.cursors[it] = struct{}{}
	p.cursorMu.Unlock()
}

func (p *Partition) untrack(it *Iterator) {
	p.cursorMu.Lock()
	delete(p.cursors, it)
	p.cursorMu.Unlock()
}

// release marks the handle closed and closes the iterators still open on
// it, so the engine is never closed under a live cursor.
func (p *Partition) release() error {
	if !p.closed.CompareAndSwap(false, true) {
		return db.ErrClosed
	}

	p.cursorMu.Lock()
	open := make([]*Iterator, 0, len(p.cursors))
	for it := range p.cursors {
		open = append(open, it)
	}
	clear(p.cursors)
	p.cursorMu.Unlock()

	var errs []error
	for _, it := range open {
		if err := it.abort(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(open) > 0 {
		p.engine.log.Warn().Str("partition", p.Name()).Int("cursors", len(open)).Msg("closed open cursors on shutdown")
	}
	return errors.Join(errs...)
}

// prefixSuccessor returns the smallest key greater than every key starting
// with prefix, or nil if there is none.
func prefixSuccessor(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
