package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/0xmhha/ledger-query/pkg/types"
)

// Key prefixes
const (
	prefixData = "/data/"
)

// Tables lists every table of the ledger schema
var Tables = []string{
	types.TableBlocks,
	types.TableTransactions,
	types.TableInternalTransactions,
	types.TableTokenTransfers,
	types.TableAddresses,
	types.TablePendingBlockOperations,
}

// TablePrefix returns the key prefix of all rows of table: /data/<table>/
func TablePrefix(table string) []byte {
	return []byte(prefixData + table + "/")
}

// RecordKey returns the storage key of r: /data/<table>/<primary key>
func RecordKey(r types.Record) ([]byte, error) {
	pk, err := PrimaryKey(r)
	if err != nil {
		return nil, err
	}
	return append(TablePrefix(r.Table()), pk...), nil
}

// PrimaryKey returns the binary primary key of r.
// Composite keys append the big-endian index to the hash so rows sort by (hash, index).
func PrimaryKey(r types.Record) ([]byte, error) {
	switch r := r.(type) {
	case *types.Block:
		return r.Hash.Bytes(), nil
	case *types.Transaction:
		return r.Hash.Bytes(), nil
	case *types.InternalTransaction:
		return compositeKey(r.TransactionHash.Bytes(), r.Index), nil
	case *types.TokenTransfer:
		return compositeKey(r.TransactionHash.Bytes(), r.LogIndex), nil
	case *types.Address:
		return r.Hash.Bytes(), nil
	case *types.PendingBlockOperation:
		return r.BlockHash.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownTable, r)
}

func compositeKey(hash []byte, index uint64) []byte {
	key := make([]byte, len(hash)+8)
	copy(key, hash)
	binary.BigEndian.PutUint64(key[len(hash):], index)
	return key
}

// newRecord returns an empty record for table
func newRecord(table string) (types.Record, error) {
	switch table {
	case types.TableBlocks:
		return &types.Block{}, nil
	case types.TableTransactions:
		return &types.Transaction{}, nil
	case types.TableInternalTransactions:
		return &types.InternalTransaction{}, nil
	case types.TableTokenTransfers:
		return &types.TokenTransfer{}, nil
	case types.TableAddresses:
		return &types.Address{}, nil
	case types.TablePendingBlockOperations:
		return &types.PendingBlockOperation{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
}

// EncodeRecord serializes a record for key-value storage
func EncodeRecord(r types.Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", r.Table(), err)
	}
	return data, nil
}

// DecodeRecord deserializes a record of table
func DecodeRecord(table string, data []byte) (types.Record, error) {
	r, err := newRecord(table)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidData, table, err)
	}
	return r, nil
}
