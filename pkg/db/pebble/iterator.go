package pebble

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/tablestore/pkg/db"
)

// Iterator walks one partition in ascending key order. Keys are returned
// without the partition namespace. The view is fixed when the iterator is
// created; later writes are not observed.
//
// An iterator still open when the engine closes is closed by the engine:
// it then reports no more entries and Error returns db.ErrClosed.
type Iterator struct {
	owner *Partition
	ns    []byte

	mu sync.Mutex
	// iter is nil once the iterator is closed
	iter       *pebble.Iterator
	positioned bool
	err        error
}

func (p *Partition) NewIterator() (db.Iterator, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	iter, err := p.engine.db.NewIter(&pebble.IterOptions{
		LowerBound: p.ns,
		UpperBound: p.upper,
	})
	if err != nil {
		return nil, fmt.Errorf(ErrInIteratorCreation, err)
	}
	it := &Iterator{owner: p, ns: p.ns, iter: iter}
	p.track(it)
	return it, nil
}

func (it *Iterator) First() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.iter == nil {
		return false
	}
	it.positioned = true
	return it.iter.First()
}

func (it *Iterator) SeekGE(key []byte) bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.iter == nil {
		return false
	}
	target := make([]byte, len(it.ns)+len(key))
	copy(target, it.ns)
	copy(target[len(it.ns):], key)
	it.positioned = true
	return it.iter.SeekGE(target)
}

func (it *Iterator) Next() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.iter == nil {
		return false
	}
	// If the iterator is un-positioned, position it at the first key
	if !it.positioned {
		it.positioned = true
		return it.iter.First()
	}
	if !it.iter.Valid() {
		return false
	}
	return it.iter.Next()
}

func (it *Iterator) Valid() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.iter != nil && it.iter.Valid()
}

func (it *Iterator) Key() []byte {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.iter == nil {
		return nil
	}
	key := it.iter.Key()
	if len(key) < len(it.ns) {
		return nil
	}
	result := make([]byte, len(key)-len(it.ns))
	copy(result, key[len(it.ns):])
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.iter == nil {
		if it.err != nil {
			return nil, it.err
		}
		return nil, ErrIteratorInvalid
	}
	if !it.iter.Valid() {
		return nil, ErrIteratorInvalid
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, fmt.Errorf(ErrIteratorValue, err)
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (it *Iterator) Error() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.err != nil {
		return it.err
	}
	if it.iter == nil {
		return nil
	}
	return it.iter.Error()
}

// Close releases the iterator. Closing twice, or after the engine closed
// it, is a no-op.
func (it *Iterator) Close() error {
	it.mu.Lock()
	err := it.closeLocked()
	it.mu.Unlock()

	it.owner.untrack(it)
	return err
}

// abort is called by the owning partition on shutdown.
func (it *Iterator) abort() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.iter == nil {
		return nil
	}
	it.err = db.ErrClosed
	return it.closeLocked()
}

func (it *Iterator) closeLocked() error {
	if it.iter == nil {
		return nil
	}
	err := it.iter.Close()
	it.iter = nil
	return err
}
