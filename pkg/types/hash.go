package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrInvalidHex is returned when a key is not 0x-prefixed hex
	ErrInvalidHex = errors.New("invalid hex encoding")

	// ErrInvalidLength is returned when a key decodes to the wrong number of bytes
	ErrInvalidLength = errors.New("invalid key length")
)

// ParseHash decodes a 0x-prefixed 32-byte block or transaction hash.
// Unlike common.HexToHash it never pads or truncates.
func ParseHash(s string) (common.Hash, error) {
	b, err := decodeFixed(s, common.HashLength)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

// ParseAddress decodes a 0x-prefixed 20-byte address hash
func ParseAddress(s string) (common.Address, error) {
	b, err := decodeFixed(s, common.AddressLength)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b), nil
}

func decodeFixed(s string, length int) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(b) != length {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidLength, length, len(b))
	}
	return b, nil
}
