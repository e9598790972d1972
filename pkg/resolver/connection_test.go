package resolver

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ledger-query/internal/testutil"
	"github.com/0xmhha/ledger-query/pkg/cursor"
	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

var (
	intPtr = testutil.IntPtr
	strPtr = testutil.StringPtr
)

func txHashes(c *Connection[*types.Transaction]) []common.Hash {
	out := make([]common.Hash, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node.Hash)
	}
	return out
}

func TestTransactionsForAddress_EndToEnd(t *testing.T) {
	r := setupResolver(t,
		testutil.NewTestTransaction(1, 100, 2, testutil.AddrA, &testutil.AddrB),
		testutil.NewTestTransaction(2, 100, 1, testutil.AddrA, &testutil.AddrB),
	)
	ctx := context.Background()

	first, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, first.Edges, 1)
	assert.Equal(t, uint64(2), first.Edges[0].Node.Index)
	assert.True(t, first.PageInfo.HasNextPage)
	assert.False(t, first.PageInfo.HasPreviousPage)
	require.NotNil(t, first.PageInfo.EndCursor)
	assert.Equal(t, first.Edges[0].Cursor, *first.PageInfo.EndCursor)

	second, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{
		First: intPtr(1),
		After: first.PageInfo.EndCursor,
	})
	require.NoError(t, err)
	require.Len(t, second.Edges, 1)
	assert.Equal(t, uint64(1), second.Edges[0].Node.Index)
	assert.False(t, second.PageInfo.HasNextPage)
	assert.True(t, second.PageInfo.HasPreviousPage)
}

func TestTransactionsForAddress_Ordering(t *testing.T) {
	r := setupResolver(t)

	conn, err := r.TransactionsForAddress(context.Background(), testutil.AddrA, ConnectionArgs{})
	require.NoError(t, err)

	// sent, received and contract creation, newest first
	assert.Equal(t, []common.Hash{
		testutil.TxHash(1), testutil.TxHash(2), testutil.TxHash(3), testutil.TxHash(4),
	}, txHashes(conn))
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.Len(t, conn.Nodes(), 4)

	for i := 1; i < len(conn.Edges); i++ {
		prev, cur := conn.Edges[i-1].Node, conn.Edges[i].Node
		assert.True(t, prev.BlockNumber > cur.BlockNumber ||
			(prev.BlockNumber == cur.BlockNumber && prev.Index > cur.Index))
	}
}

func TestTransactionsForAddress_Unknown(t *testing.T) {
	r := setupResolver(t)

	conn, err := r.TransactionsForAddress(context.Background(), testutil.Unknown, ConnectionArgs{First: intPtr(5)})
	require.NoError(t, err)
	assert.Empty(t, conn.Edges)
	assert.Nil(t, conn.PageInfo.StartCursor)
	assert.Nil(t, conn.PageInfo.EndCursor)
	assert.False(t, conn.PageInfo.HasNextPage)
}

func TestResolveConnection_ForwardWalk(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	all, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{})
	require.NoError(t, err)

	for _, size := range []int{1, 2, 3} {
		var (
			walked []common.Hash
			after  *string
		)
		for {
			page, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(size), After: after})
			require.NoError(t, err)
			walked = append(walked, txHashes(page)...)
			if !page.PageInfo.HasNextPage {
				break
			}
			after = page.PageInfo.EndCursor
		}
		assert.Equal(t, txHashes(all), walked, "page size %d", size)
	}
}

func TestResolveConnection_BackwardWalk(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	all, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{})
	require.NoError(t, err)

	var (
		walked []common.Hash
		before *string
	)
	for {
		page, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{Last: intPtr(3), Before: before})
		require.NoError(t, err)
		walked = append(txHashes(page), walked...)
		if !page.PageInfo.HasPreviousPage {
			break
		}
		before = page.PageInfo.StartCursor
	}
	assert.Equal(t, txHashes(all), walked)
}

func TestResolveConnection_Backward(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	tail, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{Last: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{testutil.TxHash(3), testutil.TxHash(4)}, txHashes(tail))
	assert.True(t, tail.PageInfo.HasPreviousPage)
	assert.False(t, tail.PageInfo.HasNextPage)

	prev, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{Last: intPtr(1), Before: tail.PageInfo.StartCursor})
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{testutil.TxHash(2)}, txHashes(prev))
	assert.True(t, prev.PageInfo.HasPreviousPage)
	assert.True(t, prev.PageInfo.HasNextPage)
}

func TestResolveConnection_InsertAheadKeepsCursor(t *testing.T) {
	store := testutil.NewSeededStore(t)
	r, err := NewResolver(store, nil, testutil.NewTestLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("after", func(t *testing.T) {
		head, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(1)})
		require.NoError(t, err)
		args := ConnectionArgs{First: intPtr(2), After: head.PageInfo.EndCursor}

		before, err := r.TransactionsForAddress(ctx, testutil.AddrA, args)
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{testutil.TxHash(2), testutil.TxHash(3)}, txHashes(before))

		require.NoError(t, store.Put(ctx, testutil.NewTestTransaction(50, 9999, 0, testutil.AddrA, &testutil.AddrB)))

		after, err := r.TransactionsForAddress(ctx, testutil.AddrA, args)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		fresh, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{testutil.TxHash(50)}, txHashes(fresh))
	})

	t.Run("before", func(t *testing.T) {
		tail, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{Last: intPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{testutil.TxHash(4)}, txHashes(tail))
		args := ConnectionArgs{Last: intPtr(2), Before: tail.PageInfo.StartCursor}

		before, err := r.TransactionsForAddress(ctx, testutil.AddrA, args)
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{testutil.TxHash(2), testutil.TxHash(3)}, txHashes(before))

		require.NoError(t, store.Put(ctx, testutil.NewTestTransaction(51, 10000, 0, testutil.AddrB, &testutil.AddrA)))

		after, err := r.TransactionsForAddress(ctx, testutil.AddrA, args)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestResolveConnection_PageSize(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	all, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{})
	require.NoError(t, err)
	last := all.Edges[len(all.Edges)-1].Cursor

	t.Run("count without before", func(t *testing.T) {
		conn, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{Count: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{testutil.TxHash(1), testutil.TxHash(2)}, txHashes(conn))
		assert.True(t, conn.PageInfo.HasNextPage)
	})

	t.Run("before ignores count", func(t *testing.T) {
		conn, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{Before: &last, Count: intPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{testutil.TxHash(1), testutil.TxHash(2), testutil.TxHash(3)}, txHashes(conn))
		assert.False(t, conn.PageInfo.HasPreviousPage)
		assert.True(t, conn.PageInfo.HasNextPage)
	})

	t.Run("zero", func(t *testing.T) {
		conn, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(0)})
		require.NoError(t, err)
		assert.Empty(t, conn.Edges)
		assert.False(t, conn.PageInfo.HasNextPage)
		assert.Nil(t, conn.PageInfo.EndCursor)
	})

	t.Run("capped", func(t *testing.T) {
		capped, err := NewResolver(testutil.NewSeededStore(t), &Config{DefaultPageSize: 1, MaxPageSize: 2}, nil)
		require.NoError(t, err)

		conn, err := capped.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(1000)})
		require.NoError(t, err)
		assert.Len(t, conn.Edges, 2)
		assert.True(t, conn.PageInfo.HasNextPage)

		conn, err = capped.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{})
		require.NoError(t, err)
		assert.Len(t, conn.Edges, 1)
	})
}

func TestConnectionArgs_PageSize(t *testing.T) {
	c := "c"
	tests := []struct {
		name string
		args ConnectionArgs
		want int
	}{
		{"nothing", ConnectionArgs{}, 10},
		{"first", ConnectionArgs{First: intPtr(3)}, 3},
		{"last", ConnectionArgs{Last: intPtr(4)}, 4},
		{"first wins over count", ConnectionArgs{First: intPtr(3), Count: intPtr(7)}, 3},
		{"last wins over count", ConnectionArgs{Last: intPtr(4), Count: intPtr(7), Before: &c}, 4},
		{"before ignores count", ConnectionArgs{Before: &c, Count: intPtr(7)}, 10},
		{"count", ConnectionArgs{Count: intPtr(7)}, 7},
		{"count with after", ConnectionArgs{After: &c, Count: intPtr(7)}, 7},
		{"capped", ConnectionArgs{First: intPtr(500)}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.args.PageSize(10, 100))
		})
	}
}

func TestConnectionArgs_Validate(t *testing.T) {
	c := "c"
	tests := []struct {
		name string
		args ConnectionArgs
	}{
		{"first and last", ConnectionArgs{First: intPtr(1), Last: intPtr(1)}},
		{"after and before", ConnectionArgs{After: &c, Before: &c}},
		{"first and before", ConnectionArgs{First: intPtr(1), Before: &c}},
		{"last and after", ConnectionArgs{Last: intPtr(1), After: &c}},
		{"negative first", ConnectionArgs{First: intPtr(-1)}},
		{"negative last", ConnectionArgs{Last: intPtr(-1)}},
		{"negative count", ConnectionArgs{Count: intPtr(-1)}},
	}

	r := setupResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindInvalidArgument, KindOf(tt.args.Validate()))

			_, err := r.TransactionsForAddress(context.Background(), testutil.AddrA, tt.args)
			assert.Equal(t, KindInvalidArgument, KindOf(err))
		})
	}

	assert.NoError(t, ConnectionArgs{First: intPtr(1), After: &c, Count: intPtr(2)}.Validate())
}

func TestResolveConnection_InvalidCursor(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	foreign, err := cursor.Encode(query.CollectionTransactionInternalTxs,
		query.InternalTransactionsForTransaction(testutil.TxHash(5)).OrderBy,
		[]any{uint64(1)})
	require.NoError(t, err)

	for name, c := range map[string]string{
		"garbage":            "not a cursor!",
		"empty":              "",
		"padded base64":      "YWJj==",
		"foreign collection": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := r.TransactionsForAddress(ctx, testutil.AddrA, ConnectionArgs{First: intPtr(1), After: strPtr(c)})
			require.Error(t, err)
			assert.Equal(t, KindInvalidCursor, KindOf(err))
			assert.Equal(t, MsgInvalidCursor, err.Error())
		})
	}
}

func TestInternalTransactions(t *testing.T) {
	r := setupResolver(t)
	ctx := context.Background()

	conn, err := r.InternalTransactions(ctx, testutil.TxHash(5), ConnectionArgs{First: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, uint64(0), conn.Edges[0].Node.Index)
	assert.Equal(t, uint64(1), conn.Edges[1].Node.Index)
	assert.True(t, conn.PageInfo.HasNextPage)

	rest, err := r.InternalTransactions(ctx, testutil.TxHash(5), ConnectionArgs{First: intPtr(2), After: conn.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, rest.Edges, 1)
	assert.Equal(t, uint64(2), rest.Edges[0].Node.Index)

	// an only child is hidden
	only, err := r.InternalTransactions(ctx, testutil.TxHash(6), ConnectionArgs{})
	require.NoError(t, err)
	assert.Empty(t, only.Edges)

	// so are internal transactions of blocks still being traced
	pending, err := r.InternalTransactions(ctx, testutil.TxHash(7), ConnectionArgs{})
	require.NoError(t, err)
	assert.Empty(t, pending.Edges)
}

func TestTokenTransfers(t *testing.T) {
	r := setupResolver(t)

	conn, err := r.TokenTransfers(context.Background(), testutil.Token, ConnectionArgs{})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2, "transfers without an indexed transaction are hidden")
	assert.Equal(t, uint64(7), conn.Edges[0].Node.LogIndex)
	assert.Equal(t, uint64(4), conn.Edges[1].Node.LogIndex)
}

func TestResolveConnection_StorageFailure(t *testing.T) {
	r := stubResolver(t, &stubExecutor{err: context.DeadlineExceeded})

	_, err := r.TransactionsForAddress(context.Background(), testutil.AddrA, ConnectionArgs{})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, MsgInternal, err.Error())
}

func TestResolveConnection_WrongRowType(t *testing.T) {
	r := stubResolver(t, &stubExecutor{rows: []types.Record{testutil.NewTestBlock(1)}})

	_, err := r.TransactionsForAddress(context.Background(), testutil.AddrA, ConnectionArgs{})
	assert.Equal(t, KindInternal, KindOf(err))
}
