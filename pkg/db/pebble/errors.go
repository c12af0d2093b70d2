package pebble

import "errors"

var (
	ErrIteratorInvalid    = errors.New("pebble: iterator is not positioned")
	ErrUnknownPartition   = errors.New("pebble: unknown partition")
	ErrPartitionConflict  = errors.New("pebble: partition id bound to another name")
	ErrDuplicatePartition = errors.New("pebble: partition declared twice")
	ErrUnknownCompression = errors.New("pebble: unknown compression")
)

const (
	ErrInIteratorCreation  = "failed to create iterator: %w"
	ErrIteratorValue       = "failed to read iterator value: %w"
	ErrFailedCatalogCommit = "failed to commit partition catalog: %w"
)
