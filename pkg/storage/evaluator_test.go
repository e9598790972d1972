package storage

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// forEachStore runs fn against every Source-backed store so memory and pebble stay in step
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, setupMemoryStore(t)) })
	t.Run("pebble", func(t *testing.T) { fn(t, setupPebbleStore(t)) })
}

func TestSelect_TransactionsForAddress(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		d := query.TransactionsForAddress(addrA)

		rows, err := s.Select(ctx, d)
		require.NoError(t, err)

		assert.Equal(t, []common.Hash{txHash(1), txHash(2), txHash(3), txHash(4)}, hashesOf(rows))

		for i := 1; i < len(rows); i++ {
			prev, _ := d.KeyOf(rows[i-1])
			cur, _ := d.KeyOf(rows[i])
			c, err := query.CompareKeys(d.OrderBy, prev, cur)
			require.NoError(t, err)
			assert.Negative(t, c, "rows must be strictly ordered")
		}
	})
}

func TestSelect_SeekLimitOffset(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		d := query.TransactionsForAddress(addrA)

		t.Run("seek is strict", func(t *testing.T) {
			rows, err := s.Select(ctx, d.WithSeek([]any{uint64(100), uint64(2)}))
			require.NoError(t, err)
			assert.Equal(t, []common.Hash{txHash(2), txHash(3), txHash(4)}, hashesOf(rows))
		})

		t.Run("seek on reversed order", func(t *testing.T) {
			rows, err := s.Select(ctx, d.Reversed().WithSeek([]any{uint64(99), uint64(0)}))
			require.NoError(t, err)
			assert.Equal(t, []common.Hash{txHash(2), txHash(1)}, hashesOf(rows))
		})

		t.Run("limit", func(t *testing.T) {
			rows, err := s.Select(ctx, d.WithLimit(2))
			require.NoError(t, err)
			assert.Equal(t, []common.Hash{txHash(1), txHash(2)}, hashesOf(rows))
		})

		t.Run("offset", func(t *testing.T) {
			rows, err := s.Select(ctx, d.WithOffset(3).WithLimit(2))
			require.NoError(t, err)
			assert.Equal(t, []common.Hash{txHash(4)}, hashesOf(rows))

			rows, err = s.Select(ctx, d.WithOffset(10))
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	})
}

func TestSelect_InternalTransactionVisibility(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		t.Run("final block with siblings", func(t *testing.T) {
			rows, err := s.Select(ctx, query.InternalTransactionsForTransaction(txHash(5)))
			require.NoError(t, err)
			require.Len(t, rows, 3)
			for i, r := range rows {
				assert.Equal(t, uint64(i), r.(*types.InternalTransaction).Index)
			}
		})

		t.Run("single internal transaction is excluded", func(t *testing.T) {
			rows, err := s.Select(ctx, query.InternalTransactionsForTransaction(txHash(6)))
			require.NoError(t, err)
			assert.Empty(t, rows)

			rows, err = s.Select(ctx, query.InternalTransactionByKey(txHash(6), 0))
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("pending block is excluded", func(t *testing.T) {
			rows, err := s.Select(ctx, query.InternalTransactionsForTransaction(txHash(7)))
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("lookup by key", func(t *testing.T) {
			rows, err := s.Select(ctx, query.InternalTransactionByKey(txHash(5), 2))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, uint64(2), rows[0].(*types.InternalTransaction).Index)
		})
	})
}

func TestSelect_WealthyAddresses(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		rows, err := s.Select(context.Background(), query.WealthyAddresses(0, 10))
		require.NoError(t, err)
		require.Len(t, rows, 2, "zero balances are excluded")
		assert.Equal(t, addrC, rows[0].(*types.Address).Hash)
		assert.Equal(t, addrA, rows[1].(*types.Address).Hash)
	})
}

func TestAggregate_Count(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		out, err := s.Aggregate(context.Background(), query.TotalTransactionCount())
		require.NoError(t, err)
		assert.Equal(t, []uint64{7}, out)
	})

	t.Run("empty table yields no rows", func(t *testing.T) {
		s := NewMemoryStore(nil)
		out, err := s.Aggregate(context.Background(), query.TotalTransactionCount())
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestSelect_Errors(t *testing.T) {
	s := setupMemoryStore(t)

	t.Run("unknown column", func(t *testing.T) {
		_, err := s.Select(context.Background(), query.Descriptor{
			Table: types.TableTransactions,
			Where: query.Eq{Column: "nope", Value: uint64(1)},
		})
		assert.ErrorIs(t, err, ErrUnsupportedPredicate)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := s.Select(context.Background(), query.Descriptor{Table: "nope"})
		assert.ErrorIs(t, err, ErrUnknownTable)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Select(ctx, query.TransactionsForAddress(addrA))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed", func(t *testing.T) {
		closed := NewMemoryStore(nil)
		require.NoError(t, closed.Close())
		_, err := closed.Select(context.Background(), query.TransactionsForAddress(addrA))
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestMemoryStore_PutReplacesAndDeletes(t *testing.T) {
	ctx := context.Background()
	s := setupMemoryStore(t)

	updated := createTestTx(1, 100, 2, addrA, &addrB, blockFinal)
	updated.Status = 1
	require.NoError(t, s.Put(ctx, updated))

	rows, err := s.Select(ctx, query.TransactionByHash(txHash(1)))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(1), rows[0].(*types.Transaction).Status)

	require.NoError(t, s.Delete(ctx, updated))
	rows, err = s.Select(ctx, query.TransactionByHash(txHash(1)))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// unkeyedRecord claims a known table but has no primary key encoding
type unkeyedRecord struct{}

func (unkeyedRecord) Table() string { return types.TableTransactions }

func (unkeyedRecord) Field(string) (any, bool) { return nil, false }

func TestWriter_BatchIsAllOrNothing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		fresh := createTestTx(42, 200, 0, addrA, &addrB, blockFinal)

		err := s.Put(ctx, fresh, unkeyedRecord{})
		require.ErrorIs(t, err, ErrUnknownTable)

		rows, err := s.Select(ctx, query.TransactionByHash(txHash(42)))
		require.NoError(t, err)
		assert.Empty(t, rows, "failed batch must not store earlier records")

		existing := createTestTx(1, 100, 2, addrA, &addrB, blockFinal)
		err = s.Delete(ctx, existing, unkeyedRecord{})
		require.ErrorIs(t, err, ErrUnknownTable)

		rows, err = s.Select(ctx, query.TransactionByHash(txHash(1)))
		require.NoError(t, err)
		assert.Len(t, rows, 1, "failed batch must not delete earlier records")
	})
}
