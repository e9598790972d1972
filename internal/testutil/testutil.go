// Package testutil provides loggers, entity constructors and a seeded ledger for tests.
package testutil

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/0xmhha/ledger-query/pkg/storage"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Addresses used by the fixture ledger
var (
	AddrA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	AddrB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	AddrC = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	// Token is a token contract with two transfers
	Token = common.HexToAddress("0x70c0000000000000000000000000000000000001")

	// Unknown never appears in the fixture ledger
	Unknown = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")

	BlockFinal   = common.HexToHash("0xb100")
	BlockPending = common.HexToHash("0xb200")
)

// TxHash returns the fixture transaction hash numbered n
func TxHash(n byte) common.Hash {
	return common.BytesToHash([]byte{0x7a, n})
}

// NewTestLogger creates a logger that writes through t.Log
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// NewTestTransaction creates transaction n in the given block position
func NewTestTransaction(n byte, blockNumber, index uint64, from common.Address, to *common.Address) *types.Transaction {
	return &types.Transaction{
		Hash:            TxHash(n),
		BlockNumber:     blockNumber,
		BlockHash:       BlockFinal,
		Index:           index,
		FromAddressHash: from,
		ToAddressHash:   to,
		Value:           big.NewInt(int64(n) * 1000),
		Gas:             21000,
		GasPrice:        big.NewInt(1),
		GasUsed:         21000,
		Status:          1,
		InsertedAt:      time.Unix(1700000000+int64(n), 0).UTC(),
	}
}

// NewTestInternalTransaction creates internal transaction index of tx
func NewTestInternalTransaction(tx common.Hash, index uint64, blockHash common.Hash) *types.InternalTransaction {
	return &types.InternalTransaction{
		TransactionHash: tx,
		Index:           index,
		BlockHash:       blockHash,
		Type:            "call",
		CallType:        "call",
		FromAddressHash: AddrC,
		Value:           big.NewInt(0),
		TraceAddress:    []uint64{index},
	}
}

// NewTestBlock creates a consensus block at number
func NewTestBlock(number uint64) *types.Block {
	return &types.Block{
		Hash:      common.BigToHash(new(big.Int).SetUint64(0xb000 + number)),
		Number:    number,
		Timestamp: time.Unix(1700000000+int64(number)*12, 0).UTC(),
		GasLimit:  8000000,
		GasUsed:   21000,
		Consensus: true,
	}
}

// NewTestAddress creates an address holding balance wei
func NewTestAddress(hash common.Address, balance int64) *types.Address {
	return &types.Address{
		Hash:                          hash,
		FetchedCoinBalance:            big.NewInt(balance),
		FetchedCoinBalanceBlockNumber: 100,
	}
}

// NewTestTokenTransfer creates a transfer of Token emitted by tx at logIndex
func NewTestTokenTransfer(tx common.Hash, blockNumber, logIndex uint64) *types.TokenTransfer {
	return &types.TokenTransfer{
		TransactionHash:          tx,
		LogIndex:                 logIndex,
		BlockNumber:              blockNumber,
		BlockHash:                BlockFinal,
		FromAddressHash:          AddrA,
		ToAddressHash:            AddrB,
		TokenContractAddressHash: Token,
		Amount:                   big.NewInt(10),
	}
}

// LedgerFixture returns a small ledger:
//   - AddrA sent tx 1 at (100,2), received tx 2 at (100,1), sent tx 3 at (99,0)
//     and created a contract in tx 4 at (98,3)
//   - tx 5 has three internal transactions, tx 6 has one, and tx 7 has two in a pending block
//   - Token has transfers in tx 1 and tx 2, plus one whose transaction was never indexed
//   - blocks 98 to 101 are consensus blocks, 102 lost a reorg
//   - AddrC holds 900, AddrA 500 and AddrB nothing
func LedgerFixture() []types.Record {
	created := AddrA
	tx4 := NewTestTransaction(4, 98, 3, AddrC, nil)
	tx4.CreatedContractAddressHash = &created

	tx7 := NewTestTransaction(7, 101, 0, AddrC, &AddrB)
	tx7.BlockHash = BlockPending

	reorged := NewTestBlock(102)
	reorged.Consensus = false

	return []types.Record{
		NewTestTransaction(1, 100, 2, AddrA, &AddrB),
		NewTestTransaction(2, 100, 1, AddrB, &AddrA),
		NewTestTransaction(3, 99, 0, AddrA, &AddrC),
		tx4,
		NewTestTransaction(5, 97, 0, AddrC, &AddrB),
		NewTestTransaction(6, 97, 1, AddrC, &AddrB),
		tx7,

		NewTestInternalTransaction(TxHash(5), 0, BlockFinal),
		NewTestInternalTransaction(TxHash(5), 1, BlockFinal),
		NewTestInternalTransaction(TxHash(5), 2, BlockFinal),
		NewTestInternalTransaction(TxHash(6), 0, BlockFinal),
		NewTestInternalTransaction(TxHash(7), 0, BlockPending),
		NewTestInternalTransaction(TxHash(7), 1, BlockPending),
		&types.PendingBlockOperation{BlockHash: BlockPending},

		NewTestTokenTransfer(TxHash(1), 100, 4),
		NewTestTokenTransfer(TxHash(2), 100, 7),
		NewTestTokenTransfer(TxHash(99), 100, 9),

		NewTestBlock(98),
		NewTestBlock(99),
		NewTestBlock(100),
		NewTestBlock(101),
		reorged,

		NewTestAddress(AddrA, 500),
		NewTestAddress(AddrB, 0),
		NewTestAddress(AddrC, 900),
	}
}

// NewSeededStore returns a memory store loaded with records, or with LedgerFixture when none are given
func NewSeededStore(t *testing.T, records ...types.Record) *storage.MemoryStore {
	t.Helper()
	if len(records) == 0 {
		records = LedgerFixture()
	}
	s := storage.NewMemoryStore(NewTestLogger(t))
	if err := s.Put(context.Background(), records...); err != nil {
		t.Fatalf("seed memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v
func StringPtr(v string) *string {
	return &v
}
