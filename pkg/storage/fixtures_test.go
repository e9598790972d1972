package storage

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ledger-query/pkg/types"
)

var (
	addrA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	addrC = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	blockFinal   = common.HexToHash("0xb100")
	blockPending = common.HexToHash("0xb200")
)

func txHash(n byte) common.Hash {
	return common.BytesToHash([]byte{0x7a, n})
}

func createTestTx(n byte, block, index uint64, from common.Address, to *common.Address, blockHash common.Hash) *types.Transaction {
	return &types.Transaction{
		Hash:            txHash(n),
		BlockNumber:     block,
		BlockHash:       blockHash,
		Index:           index,
		FromAddressHash: from,
		ToAddressHash:   to,
		Value:           big.NewInt(int64(n)),
		InsertedAt:      time.Unix(1700000000+int64(n), 0).UTC(),
	}
}

func createTestInternalTx(tx common.Hash, index uint64, blockHash common.Hash) *types.InternalTransaction {
	return &types.InternalTransaction{
		TransactionHash: tx,
		Index:           index,
		BlockHash:       blockHash,
		Type:            "call",
		FromAddressHash: addrA,
		Value:           big.NewInt(0),
	}
}

// ledgerFixture is a small ledger:
//   - address A has transactions (100,2) (100,1) (99,0) and created a contract in (98,3)
//   - tx 5 has three internal transactions in a final block
//   - tx 6 has one internal transaction in a final block
//   - tx 7 has two internal transactions in a pending block
func ledgerFixture() []types.Record {
	created := addrA
	tx4 := createTestTx(4, 98, 3, addrC, nil, blockFinal)
	tx4.CreatedContractAddressHash = &created

	return []types.Record{
		createTestTx(1, 100, 2, addrA, &addrB, blockFinal),
		createTestTx(2, 100, 1, addrB, &addrA, blockFinal),
		createTestTx(3, 99, 0, addrA, &addrC, blockFinal),
		tx4,
		createTestTx(5, 97, 0, addrC, &addrB, blockFinal),
		createTestTx(6, 97, 1, addrC, &addrB, blockFinal),
		createTestTx(7, 101, 0, addrC, &addrB, blockPending),

		createTestInternalTx(txHash(5), 0, blockFinal),
		createTestInternalTx(txHash(5), 1, blockFinal),
		createTestInternalTx(txHash(5), 2, blockFinal),
		createTestInternalTx(txHash(6), 0, blockFinal),
		createTestInternalTx(txHash(7), 0, blockPending),
		createTestInternalTx(txHash(7), 1, blockPending),

		&types.PendingBlockOperation{BlockHash: blockPending},

		&types.Address{Hash: addrA, FetchedCoinBalance: big.NewInt(500)},
		&types.Address{Hash: addrB, FetchedCoinBalance: big.NewInt(0)},
		&types.Address{Hash: addrC, FetchedCoinBalance: big.NewInt(900)},
	}
}

func seed(t *testing.T, w Writer, records []types.Record) {
	t.Helper()
	require.NoError(t, w.Put(context.Background(), records...))
}

func setupMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(nil)
	seed(t, s, ledgerFixture())
	return s
}

func setupPebbleStore(t *testing.T) *PebbleStore {
	t.Helper()

	cfg := DefaultBackendConfig(BackendTypePebble, t.TempDir())
	cfg.Cache = 8
	cfg.WriteBuffer = 4

	s, err := NewPebbleStore(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	seed(t, s, ledgerFixture())
	return s
}

func hashesOf(records []types.Record) []common.Hash {
	out := make([]common.Hash, 0, len(records))
	for _, r := range records {
		switch r := r.(type) {
		case *types.Transaction:
			out = append(out, r.Hash)
		case *types.InternalTransaction:
			out = append(out, r.TransactionHash)
		}
	}
	return out
}
