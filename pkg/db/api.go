package db

// KVStore represents a key-value storage interface scoped to a single
// partition. Keys passed in and returned are partition-relative: the
// namespace tag is never visible to callers.
type KVStore interface {
	Reader
	Writer
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator() (Iterator, error)
	Name() string
}

type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically.
type Batch interface {
	Writer
	Delete(key []byte) error
	Count() uint32
	Commit() error
	Close() error
}

// Iterator provides forward access over a partition's key-value pairs in
// ascending byte order. Iterators reflect the partition as of their creation
// and must be closed after use.
type Iterator interface {
	// First positions the iterator at the first key of the partition.
	First() bool
	// SeekGE positions the iterator at the first key >= key.
	SeekGE(key []byte) bool
	Next() bool
	Valid() bool
	Key() []byte
	Value() ([]byte, error)
	Error() error
	Close() error
}
