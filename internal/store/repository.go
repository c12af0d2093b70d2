package store

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/eigerco/tablestore/pkg/db"
	"github.com/eigerco/tablestore/pkg/db/pebble"
	"github.com/eigerco/tablestore/pkg/log"
	"github.com/eigerco/tablestore/pkg/serialization"
	"github.com/eigerco/tablestore/pkg/serialization/codec"
)

// Entry is a decoded key-value pair of a partition.
type Entry[V any] struct {
	Key   string
	Value V
}

// Repository gives typed access to the values of one partition. It holds no
// data and does not own the store: closing the engine is the caller's job.
// Point operations and batches are safe for concurrent use; every sequence
// returned by a scan must be consumed by a single goroutine.
type Repository[V any] struct {
	kv  db.KVStore
	ser *serialization.Serializer[V]
	log zerolog.Logger
}

// New binds a repository to a partition store and a codec.
func New[V any](kv db.KVStore, c codec.Codec[V]) *Repository[V] {
	return &Repository[V]{
		kv:  kv,
		ser: serialization.NewSerializer(c),
		log: log.Store.With().Str("partition", kv.Name()).Logger(),
	}
}

// Open binds a repository to partition p of an open engine.
func Open[V any](e *pebble.Engine, p db.Partition, c codec.Codec[V]) (*Repository[V], error) {
	h, err := e.Partition(p.Name)
	if err != nil {
		return nil, err
	}
	return New(h, c), nil
}

// Partition returns the name of the partition this repository reads.
func (r *Repository[V]) Partition() string {
	return r.kv.Name()
}

// Save stores value under key, replacing any previous value.
func (r *Repository[V]) Save(key string, value V) error {
	const op = "save"
	if key == "" {
		return db.WriteError(op, key, db.ErrEmptyKey)
	}
	data, err := r.ser.Encode(op, key, value)
	if err != nil {
		return err
	}
	if err := r.kv.Put([]byte(key), data); err != nil {
		return db.WriteError(op, key, err)
	}
	return nil
}

// Find returns the value stored under key. A missing key is reported with
// ok == false and a nil error.
func (r *Repository[V]) Find(key string) (value V, ok bool, err error) {
	const op = "find"
	if key == "" {
		return value, false, db.ReadError(op, key, db.ErrEmptyKey)
	}
	data, err := r.kv.Get([]byte(key))
	if errors.Is(err, db.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, db.ReadError(op, key, err)
	}
	value, err = r.ser.Decode(op, key, data)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (r *Repository[V]) Delete(key string) error {
	const op = "delete"
	if key == "" {
		return db.WriteError(op, key, db.ErrEmptyKey)
	}
	if err := r.kv.Delete([]byte(key)); err != nil {
		return db.WriteError(op, key, err)
	}
	return nil
}

// Exists reports whether key is present using a point lookup.
func (r *Repository[V]) Exists(key string) (bool, error) {
	const op = "exists"
	if key == "" {
		return false, db.ReadError(op, key, db.ErrEmptyKey)
	}
	ok, err := r.kv.Has([]byte(key))
	if err != nil {
		return false, db.ReadError(op, key, err)
	}
	return ok, nil
}

// Count scans the whole partition. It is O(n) in the partition size.
func (r *Repository[V]) Count() (n int, err error) {
	const op = "count"
	it, err := r.kv.NewIterator()
	if err != nil {
		return 0, db.ReadError(op, "", err)
	}
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			n, err = 0, db.ReadError(op, "", cerr)
		}
	}()

	for ok := it.First(); ok; ok = it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, db.ReadError(op, "", err)
	}
	return n, nil
}

// FindAll yields every value of the partition in ascending key order.
func (r *Repository[V]) FindAll() iter.Seq2[V, error] {
	return values(r.scan("findAll", nil))
}

// FindByPrefix yields, in ascending key order, the values whose key starts
// with the bytes of prefix.
func (r *Repository[V]) FindByPrefix(prefix string) iter.Seq2[V, error] {
	return values(r.scan("findByPrefix", []byte(prefix)))
}

// Entries yields the key-value pairs whose key starts with prefix. An empty
// prefix yields the whole partition.
func (r *Repository[V]) Entries(prefix string) iter.Seq2[Entry[V], error] {
	return r.scan("entries", []byte(prefix))
}

// scan opens a fresh cursor every time the sequence is ranged over and
// closes it on every exit path. After an error the sequence stops.
func (r *Repository[V]) scan(op string, prefix []byte) iter.Seq2[Entry[V], error] {
	return func(yield func(Entry[V], error) bool) {
		it, err := r.kv.NewIterator()
		if err != nil {
			yield(Entry[V]{}, db.ReadError(op, string(prefix), err))
			return
		}

		// more is false while the consumer runs and once it has stopped,
		// so the cursor close below never yields to a finished loop.
		more := true
		emit := func(e Entry[V], err error) bool {
			more = false
			more = yield(e, err)
			return more
		}
		defer func() {
			if err := it.Close(); err != nil {
				if more {
					emit(Entry[V]{}, db.ReadError(op, string(prefix), err))
					return
				}
				r.log.Warn().Err(err).Str("op", op).Msg("error closing cursor")
			}
		}()

		ok := it.First()
		if len(prefix) > 0 {
			ok = it.SeekGE(prefix)
		}
		for ; ok; ok = it.Next() {
			key := it.Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			data, err := it.Value()
			if err != nil {
				emit(Entry[V]{}, db.ReadError(op, string(key), err))
				return
			}
			value, err := r.ser.Decode(op, string(key), data)
			if err != nil {
				emit(Entry[V]{}, err)
				return
			}
			if !emit(Entry[V]{Key: string(key), Value: value}, nil) {
				return
			}
		}
		if err := it.Error(); err != nil {
			emit(Entry[V]{}, db.ReadError(op, string(prefix), err))
		}
	}
}

func values[V any](seq iter.Seq2[Entry[V], error]) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		for e, err := range seq {
			if !yield(e.Value, err) {
				return
			}
		}
	}
}

// SaveAll stores every entry with one atomic write: either all entries are
// applied or none is.
func (r *Repository[V]) SaveAll(entries map[string]V) error {
	const op = "saveAll"
	if len(entries) == 0 {
		return nil
	}

	batch := r.kv.NewBatch()
	defer r.closeBatch(op, batch)

	for _, key := range slices.Sorted(maps.Keys(entries)) {
		if key == "" {
			return db.WriteError(op, db.BatchKey, db.ErrEmptyKey)
		}
		data, err := r.ser.Encode(op, key, entries[key])
		if err != nil {
			return err
		}
		if err := batch.Put([]byte(key), data); err != nil {
			return db.WriteError(op, db.BatchKey, fmt.Errorf("put %q: %w", key, err))
		}
	}
	return r.commit(op, batch)
}

// DeleteAll removes every key with one atomic write. Missing keys are
// ignored, as with Delete.
func (r *Repository[V]) DeleteAll(keys []string) error {
	const op = "deleteAll"
	if len(keys) == 0 {
		return nil
	}

	batch := r.kv.NewBatch()
	defer r.closeBatch(op, batch)

	for _, key := range keys {
		if key == "" {
			return db.WriteError(op, db.BatchKey, db.ErrEmptyKey)
		}
		if err := batch.Delete([]byte(key)); err != nil {
			return db.WriteError(op, db.BatchKey, fmt.Errorf("delete %q: %w", key, err))
		}
	}
	return r.commit(op, batch)
}

func (r *Repository[V]) commit(op string, batch db.Batch) error {
	n := batch.Count()
	if err := batch.Commit(); err != nil {
		return db.WriteError(op, db.BatchKey, err)
	}
	r.log.Debug().Str("op", op).Uint32("ops", n).Msg("batch committed")
	return nil
}

func (r *Repository[V]) closeBatch(op string, batch db.Batch) {
	if err := batch.Close(); err != nil {
		r.log.Warn().Err(err).Str("op", op).Msg("error closing batch")
	}
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect[V any](seq iter.Seq2[V, error]) ([]V, error) {
	var out []V
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
