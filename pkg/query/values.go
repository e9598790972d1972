package query

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrIncomparable is returned when two column values have no defined order
var ErrIncomparable = errors.New("incomparable values")

// Compare orders two non-NULL column values, returning -1, 0 or +1.
// Integers compare numerically across uint64, int and *big.Int; hashes and
// addresses compare bytewise; times compare chronologically.
func Compare(a, b any) (int, error) {
	if a == nil || b == nil {
		return 0, fmt.Errorf("%w: NULL operand", ErrIncomparable)
	}

	if x, ok := toBig(a); ok {
		y, ok := toBig(b)
		if !ok {
			return 0, fmt.Errorf("%w: %T and %T", ErrIncomparable, a, b)
		}
		return x.Cmp(y), nil
	}

	switch x := a.(type) {
	case common.Hash:
		if y, ok := b.(common.Hash); ok {
			return bytes.Compare(x[:], y[:]), nil
		}
	case common.Address:
		if y, ok := b.(common.Address); ok {
			return bytes.Compare(x[:], y[:]), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %T and %T", ErrIncomparable, a, b)
}

// CompareKeys orders two ordering keys under the given order columns
func CompareKeys(orders []Order, a, b []any) (int, error) {
	if len(a) != len(orders) || len(b) != len(orders) {
		return 0, fmt.Errorf("key arity mismatch: order has %d columns, keys have %d and %d", len(orders), len(a), len(b))
	}
	for i, o := range orders {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", o.Column, err)
		}
		if c == 0 {
			continue
		}
		if o.Direction == Desc {
			c = -c
		}
		return c, nil
	}
	return 0, nil
}

func toBig(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case uint64:
		return new(big.Int).SetUint64(n), true
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}
