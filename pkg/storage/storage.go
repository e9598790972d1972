// Package storage executes query descriptors against a ledger store.
package storage

import (
	"context"
	"errors"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Common errors
var (
	// ErrNotFound is returned when a key is not found
	ErrNotFound = errors.New("not found")

	// ErrNoRows is returned when a single-row query produced no row
	ErrNoRows = errors.New("no rows in result set")

	// ErrInvalidData is returned when a stored record cannot be decoded
	ErrInvalidData = errors.New("invalid data")

	// ErrClosed is returned when operating on a closed storage
	ErrClosed = errors.New("storage closed")

	// ErrReadOnly is returned when attempting to write to a read-only storage
	ErrReadOnly = errors.New("storage is read-only")

	// ErrUnsupportedPredicate is returned for a predicate or column the backend cannot evaluate
	ErrUnsupportedPredicate = errors.New("unsupported predicate")

	// ErrUnknownTable is returned for a table outside the ledger schema
	ErrUnknownTable = errors.New("unknown table")
)

// Executor runs query descriptors. Implementations acquire and release any
// connection or iterator within a single call.
type Executor interface {
	// Select returns the rows matching d in d's order, after applying seek, offset and limit
	Select(ctx context.Context, d query.Descriptor) ([]types.Record, error)

	// Aggregate returns one value per output row. A COUNT over no input rows yields no rows.
	Aggregate(ctx context.Context, a query.Aggregate) ([]uint64, error)

	// Close releases backend resources
	Close() error

	// Type returns the backend type
	Type() BackendType
}

// Pinger is implemented by backends that can report their liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks exec's backend, looking through wrapping executors.
// Backends without a liveness check are reported healthy.
func Ping(ctx context.Context, exec Executor) error {
	for exec != nil {
		if p, ok := exec.(Pinger); ok {
			return p.Ping(ctx)
		}
		u, ok := exec.(interface{ Unwrap() Executor })
		if !ok {
			return nil
		}
		exec = u.Unwrap()
	}
	return nil
}

// Writer loads records into a backend. The query service itself never writes;
// loaders and tests use it to seed data.
type Writer interface {
	// Put inserts or replaces records by primary key
	Put(ctx context.Context, records ...types.Record) error

	// Delete removes records by primary key
	Delete(ctx context.Context, records ...types.Record) error
}

// Store is a backend that can be both queried and loaded
type Store interface {
	Executor
	Writer
}
