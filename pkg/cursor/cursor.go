// Package cursor encodes ordering keys as opaque pagination cursors.
//
// A cursor is the unpadded base64url form of the RLP list
//
//	[version, collection, k1, ..., kn]
//
// where each key is encoded according to the kind of its ordering column.
// Decoding is strict, so every valid key tuple has exactly one cursor.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/0xmhha/ledger-query/pkg/query"
)

// Version is the current cursor layout
const Version uint64 = 1

var (
	// ErrInvalid is returned for any cursor that does not decode to a key of the expected shape
	ErrInvalid = errors.New("invalid cursor")

	// ErrUnsupportedValue is returned when a key value does not match its column kind
	ErrUnsupportedValue = errors.New("unsupported cursor value")
)

var encoding = base64.RawURLEncoding.Strict()

// Encode returns the cursor for key under the given ordering of collection
func Encode(collection string, orders []query.Order, key []any) (string, error) {
	if len(key) != len(orders) {
		return "", fmt.Errorf("%w: %d values for %d order columns", ErrUnsupportedValue, len(key), len(orders))
	}

	items := make([]any, 0, len(key)+2)
	items = append(items, Version, collection)
	for i, o := range orders {
		v, err := encodeValue(o.Kind, key[i])
		if err != nil {
			return "", fmt.Errorf("column %s: %w", o.Column, err)
		}
		items = append(items, v)
	}

	payload, err := rlp.EncodeToBytes(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return encoding.EncodeToString(payload), nil
}

// Decode parses a cursor previously issued by Encode for the same collection and ordering
func Decode(collection string, orders []query.Order, s string) ([]any, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}
	payload, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var raw []rlp.RawValue
	if err := rlp.DecodeBytes(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(raw) != len(orders)+2 {
		return nil, fmt.Errorf("%w: expected %d elements, got %d", ErrInvalid, len(orders)+2, len(raw))
	}

	var version uint64
	if err := rlp.DecodeBytes(raw[0], &version); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrInvalid, err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalid, version)
	}

	var name string
	if err := rlp.DecodeBytes(raw[1], &name); err != nil {
		return nil, fmt.Errorf("%w: collection: %v", ErrInvalid, err)
	}
	if name != collection {
		return nil, fmt.Errorf("%w: issued for %q, not %q", ErrInvalid, name, collection)
	}

	key := make([]any, len(orders))
	for i, o := range orders {
		v, err := decodeValue(o.Kind, raw[i+2])
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrInvalid, o.Column, err)
		}
		key[i] = v
	}
	return key, nil
}

func encodeValue(kind query.Kind, v any) (any, error) {
	switch kind {
	case query.KindUint:
		if n, ok := v.(uint64); ok {
			return n, nil
		}
	case query.KindHash:
		if h, ok := v.(common.Hash); ok {
			return h.Bytes(), nil
		}
	case query.KindAddress:
		if a, ok := v.(common.Address); ok {
			return a.Bytes(), nil
		}
	case query.KindBigInt:
		if n, ok := v.(*big.Int); ok && n != nil {
			if n.Sign() < 0 {
				return nil, fmt.Errorf("%w: negative integer", ErrUnsupportedValue)
			}
			return n, nil
		}
	case query.KindTime:
		if t, ok := v.(time.Time); ok {
			nanos := t.UnixNano()
			if nanos < 0 || t.Before(time.Unix(0, 0)) || t.After(time.Unix(0, math.MaxInt64)) {
				return nil, fmt.Errorf("%w: time %s out of range", ErrUnsupportedValue, t)
			}
			return uint64(nanos), nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown column kind %d", ErrUnsupportedValue, kind)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func decodeValue(kind query.Kind, raw rlp.RawValue) (any, error) {
	switch kind {
	case query.KindUint:
		var n uint64
		if err := rlp.DecodeBytes(raw, &n); err != nil {
			return nil, err
		}
		return n, nil
	case query.KindHash:
		b, err := decodeFixed(raw, common.HashLength)
		if err != nil {
			return nil, err
		}
		return common.BytesToHash(b), nil
	case query.KindAddress:
		b, err := decodeFixed(raw, common.AddressLength)
		if err != nil {
			return nil, err
		}
		return common.BytesToAddress(b), nil
	case query.KindBigInt:
		n := new(big.Int)
		if err := rlp.DecodeBytes(raw, n); err != nil {
			return nil, err
		}
		return n, nil
	case query.KindTime:
		var nanos uint64
		if err := rlp.DecodeBytes(raw, &nanos); err != nil {
			return nil, err
		}
		if nanos > math.MaxInt64 {
			return nil, errors.New("time out of range")
		}
		return time.Unix(0, int64(nanos)).UTC(), nil
	}
	return nil, fmt.Errorf("unknown column kind %d", kind)
}

func decodeFixed(raw rlp.RawValue, length int) ([]byte, error) {
	var b []byte
	if err := rlp.DecodeBytes(raw, &b); err != nil {
		return nil, err
	}
	if len(b) != length {
		return nil, fmt.Errorf("want %d bytes, got %d", length, len(b))
	}
	return b, nil
}
