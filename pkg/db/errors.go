package db

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("db: key not found")
	ErrClosed    = errors.New("db: store is closed")
	ErrBatchDone = errors.New("db: batch already committed or closed")
	ErrEmptyKey  = errors.New("db: empty key")
)

// Error kinds. Use errors.Is(err, ErrStorageWrite) and friends to classify a
// failure returned by the engine or a repository.
var (
	ErrStorageInit  = errors.New("storage init error")
	ErrStorageRead  = errors.New("storage read error")
	ErrStorageWrite = errors.New("storage write error")
	ErrCodec        = errors.New("codec error")
)

// BatchKey is reported as the key of errors raised by batched operations.
const BatchKey = "batch"

// Error describes a failed storage operation.
type Error struct {
	Kind error
	Op   string
	// Key is the offending key, BatchKey for batched operations or empty when
	// the failure is not tied to a key.
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %q: %v", e.Kind, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func InitError(op string, err error) error {
	return &Error{Kind: ErrStorageInit, Op: op, Err: err}
}

func ReadError(op, key string, err error) error {
	return &Error{Kind: ErrStorageRead, Op: op, Key: key, Err: err}
}

func WriteError(op, key string, err error) error {
	return &Error{Kind: ErrStorageWrite, Op: op, Key: key, Err: err}
}

func CodecError(op, key string, err error) error {
	return &Error{Kind: ErrCodec, Op: op, Key: key, Err: err}
}
