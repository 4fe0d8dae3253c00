// Package database is the key/value layer under the account store. Backends
// live in subpackages and register themselves by name.
package database

import (
	"context"
	"errors"
)

var (
	// ErrDBClosed is returned by every operation after Close
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned by Read for an absent key
	ErrKeyNotFound = errors.New("key not found")

	// ErrBatchOperationFailed wraps a backend failure inside Batch
	ErrBatchOperationFailed = errors.New("batch operation failed")
)

// DB is an ordered byte key/value store. Implementations are safe for
// concurrent use and commit a Batch atomically.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator visits keys in [start, end) in byte order. A nil bound is
	// open.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Iterator yields owned copies of keys and values.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// BatchOperation is one write of a Batch. Value is ignored for deletes.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}
