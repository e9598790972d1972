package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Source scans the rows of one table in primary key order.
// fn may itself call Scan for correlated subqueries.
type Source interface {
	Scan(ctx context.Context, table string, fn func(types.Record) error) error
}

// errStopScan ends a scan early without reporting an error
var errStopScan = errors.New("stop scan")

// evaluator executes descriptors over any Source. The memory and pebble backends share it.
type evaluator struct {
	src Source
}

type keyedRecord struct {
	record types.Record
	key    []any
}

// Select filters, orders, seeks and windows the rows of d.Table
func (e evaluator) Select(ctx context.Context, d query.Descriptor) ([]types.Record, error) {
	var rows []keyedRecord
	err := e.src.Scan(ctx, d.Table, func(r types.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.match(ctx, d.Where, r)
		if err != nil || !ok {
			return err
		}
		key, err := d.KeyOf(r)
		if err != nil {
			return err
		}
		if d.Seek != nil {
			c, err := query.CompareKeys(d.OrderBy, key, d.Seek)
			if err != nil {
				return fmt.Errorf("seek: %w", err)
			}
			if c <= 0 {
				return nil
			}
		}
		rows = append(rows, keyedRecord{record: r, key: key})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(d.OrderBy) > 0 {
		var sortErr error
		sort.SliceStable(rows, func(i, j int) bool {
			c, err := query.CompareKeys(d.OrderBy, rows[i].key, rows[j].key)
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return c < 0
		})
		if sortErr != nil {
			return nil, fmt.Errorf("order: %w", sortErr)
		}
	}

	if d.Offset > 0 {
		if d.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[d.Offset:]
		}
	}
	if d.Limit > 0 && len(rows) > d.Limit {
		rows = rows[:d.Limit]
	}

	out := make([]types.Record, len(rows))
	for i, r := range rows {
		out[i] = r.record
	}
	return out, nil
}

// Aggregate evaluates a over the matching rows. Zero matching rows produce zero output rows.
func (e evaluator) Aggregate(ctx context.Context, a query.Aggregate) ([]uint64, error) {
	if a.Func != query.Count {
		return nil, fmt.Errorf("%w: aggregate function %d", ErrUnsupportedPredicate, a.Func)
	}

	var count uint64
	err := e.src.Scan(ctx, a.Table, func(r types.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.match(ctx, a.Where, r)
		if err != nil {
			return err
		}
		if ok {
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []uint64{}, nil
	}
	return []uint64{count}, nil
}

func (e evaluator) match(ctx context.Context, p query.Predicate, r types.Record) (bool, error) {
	switch p := p.(type) {
	case nil:
		return true, nil
	case query.Eq:
		return compareColumn(r, p.Column, p.Value, func(c int) bool { return c == 0 })
	case query.Ne:
		return compareColumn(r, p.Column, p.Value, func(c int) bool { return c != 0 })
	case query.Gt:
		return compareColumn(r, p.Column, p.Value, func(c int) bool { return c > 0 })
	case query.IsNull:
		v, ok := r.Field(p.Column)
		if !ok {
			return false, unknownColumn(r, p.Column)
		}
		return v == nil, nil
	case query.And:
		for _, sub := range p {
			ok, err := e.match(ctx, sub, r)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case query.Or:
		for _, sub := range p {
			ok, err := e.match(ctx, sub, r)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case query.Not:
		ok, err := e.match(ctx, p.Predicate, r)
		return !ok, err
	case query.Exists:
		return e.exists(ctx, p, r)
	}
	return false, fmt.Errorf("%w: %T", ErrUnsupportedPredicate, p)
}

func (e evaluator) exists(ctx context.Context, p query.Exists, outer types.Record) (bool, error) {
	outerValues := make([]any, len(p.On))
	for i, c := range p.On {
		v, ok := outer.Field(c.Outer)
		if !ok {
			return false, unknownColumn(outer, c.Outer)
		}
		if v == nil {
			// NULL never correlates
			return false, nil
		}
		outerValues[i] = v
	}

	found := false
	err := e.src.Scan(ctx, p.Table, func(inner types.Record) error {
		for i, c := range p.On {
			v, ok := inner.Field(c.Inner)
			if !ok {
				return unknownColumn(inner, c.Inner)
			}
			if v == nil {
				return nil
			}
			cmp, err := query.Compare(v, outerValues[i])
			if err != nil {
				return fmt.Errorf("correlate %s.%s: %w", p.Table, c.Inner, err)
			}
			if (c.Op == query.OpEq) != (cmp == 0) {
				return nil
			}
		}
		ok, err := e.match(ctx, p.Where, inner)
		if err != nil {
			return err
		}
		if ok {
			found = true
			return errStopScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return false, err
	}
	return found, nil
}

func compareColumn(r types.Record, column string, value any, accept func(int) bool) (bool, error) {
	v, ok := r.Field(column)
	if !ok {
		return false, unknownColumn(r, column)
	}
	if v == nil || value == nil {
		return false, nil
	}
	c, err := query.Compare(v, value)
	if err != nil {
		return false, fmt.Errorf("%s.%s: %w", r.Table(), column, err)
	}
	return accept(c), nil
}

func unknownColumn(r types.Record, column string) error {
	return fmt.Errorf("%w: unknown column %s.%s", ErrUnsupportedPredicate, r.Table(), column)
}
