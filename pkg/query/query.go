// Package query builds declarative descriptors for the ledger collections.
// Descriptors are plain values: building one never touches storage, and every
// With* helper returns a modified copy.
package query

import (
	"fmt"

	"github.com/0xmhha/ledger-query/pkg/types"
)

// Direction is the sort direction of an ordering column
type Direction int

const (
	Asc Direction = iota
	Desc
)

// String returns the SQL keyword for the direction
func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Kind identifies the value type of an ordering column so cursors can be decoded without guessing
type Kind int

const (
	KindUint Kind = iota + 1
	KindHash
	KindAddress
	KindBigInt
	KindTime
)

// Order is one column of an ORDER BY clause
type Order struct {
	Column    string
	Kind      Kind
	Direction Direction
}

// Descriptor describes a read over one table.
// Seek, when set, restricts rows to those strictly after the given ordering key
// in the descriptor's own OrderBy (lexicographic over all order columns).
type Descriptor struct {
	// Collection names the logical collection; cursors are bound to it
	Collection string
	Table      string
	Where      Predicate
	OrderBy    []Order
	Seek       []any
	// Limit of 0 means unlimited
	Limit  int
	Offset int
}

// WithSeek returns a copy of d that starts strictly after key
func (d Descriptor) WithSeek(key []any) Descriptor {
	d.OrderBy = append([]Order(nil), d.OrderBy...)
	if key == nil {
		d.Seek = nil
		return d
	}
	d.Seek = append([]any(nil), key...)
	return d
}

// WithLimit returns a copy of d fetching at most n rows
func (d Descriptor) WithLimit(n int) Descriptor {
	d.OrderBy = append([]Order(nil), d.OrderBy...)
	d.Limit = n
	return d
}

// WithOffset returns a copy of d skipping the first n rows
func (d Descriptor) WithOffset(n int) Descriptor {
	d.OrderBy = append([]Order(nil), d.OrderBy...)
	if n < 0 {
		n = 0
	}
	d.Offset = n
	return d
}

// Reversed returns a copy of d with every ordering column flipped.
// Backward pagination seeks "after" the cursor in this reversed order.
func (d Descriptor) Reversed() Descriptor {
	orders := make([]Order, len(d.OrderBy))
	for i, o := range d.OrderBy {
		o.Direction = o.Direction.Flip()
		orders[i] = o
	}
	d.OrderBy = orders
	return d
}

// KeyOf extracts the ordering key of r, in OrderBy order
func (d Descriptor) KeyOf(r types.Record) ([]any, error) {
	key := make([]any, len(d.OrderBy))
	for i, o := range d.OrderBy {
		v, ok := r.Field(o.Column)
		if !ok {
			return nil, fmt.Errorf("%s has no column %q", r.Table(), o.Column)
		}
		if v == nil {
			return nil, fmt.Errorf("%s.%s is NULL and cannot be part of an ordering key", r.Table(), o.Column)
		}
		key[i] = v
	}
	return key, nil
}

// AggregateFunc is the aggregate applied by an Aggregate descriptor
type AggregateFunc int

const (
	Count AggregateFunc = iota + 1
)

// Aggregate describes a scalar aggregate over one table.
// Over zero input rows it produces zero output rows rather than a zero value.
type Aggregate struct {
	Name  string
	Table string
	Func  AggregateFunc
	Where Predicate
}
