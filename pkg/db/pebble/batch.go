package pebble

import (
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/tablestore/pkg/db"
)

// Batch collects puts and deletes for one partition and applies them with a
// single atomic commit.
type Batch struct {
	part  *Partition
	batch *pebble.Batch
	done  atomic.Bool
}

func (p *Partition) NewBatch() db.Batch {
	return &Batch{
		part:  p,
		batch: p.engine.db.NewBatch(),
	}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	return b.batch.Set(b.part.key(key), value, nil)
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	return b.batch.Delete(b.part.key(key), nil)
}

// Count returns the number of operations recorded so far.
func (b *Batch) Count() uint32 {
	return b.batch.Count()
}

// Commit applies every recorded operation atomically. A failed commit
// applies nothing and leaves the batch open for Close.
func (b *Batch) Commit() error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	if err := b.part.lock(); err != nil {
		return err
	}
	defer b.part.unlock()

	if err := b.batch.Commit(b.part.engine.wo); err != nil {
		return err
	}
	b.done.Store(true)
	return b.batch.Close()
}

// Close discards the batch. It is safe to call after Commit and more than once.
func (b *Batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return b.batch.Close()
}
