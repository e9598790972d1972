package resolver

import (
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xmhha/ledger-query/pkg/cursor"
	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// ConnectionArgs are the Relay pagination arguments. Count is a page size hint
// honored only when neither First, Last nor Before is given.
type ConnectionArgs struct {
	First  *int
	After  *string
	Last   *int
	Before *string
	Count  *int
}

// Edge pairs a node with its cursor
type Edge[T types.Record] struct {
	Cursor string
	Node   T
}

// PageInfo describes the window of a connection
type PageInfo struct {
	StartCursor     *string
	EndCursor       *string
	HasNextPage     bool
	HasPreviousPage bool
}

// Connection is one page of a cursor-paginated collection, edges in query order
type Connection[T types.Record] struct {
	Edges    []Edge[T]
	PageInfo PageInfo
}

// Nodes returns the nodes of c in edge order
func (c *Connection[T]) Nodes() []T {
	nodes := make([]T, len(c.Edges))
	for i, e := range c.Edges {
		nodes[i] = e.Node
	}
	return nodes
}

// Validate rejects conflicting or negative arguments
func (a ConnectionArgs) Validate() error {
	switch {
	case a.First != nil && a.Last != nil:
		return invalidArgument("first and last cannot be combined")
	case a.After != nil && a.Before != nil:
		return invalidArgument("after and before cannot be combined")
	case a.First != nil && a.Before != nil:
		return invalidArgument("first cannot be combined with before")
	case a.Last != nil && a.After != nil:
		return invalidArgument("last cannot be combined with after")
	case a.First != nil && *a.First < 0:
		return invalidArgument("first must not be negative")
	case a.Last != nil && *a.Last < 0:
		return invalidArgument("last must not be negative")
	case a.Count != nil && *a.Count < 0:
		return invalidArgument("count must not be negative")
	}
	return nil
}

// Backward reports whether the page is taken walking toward the start of the order
func (a ConnectionArgs) Backward() bool {
	return a.Last != nil || a.Before != nil
}

// PageSize applies the size policy:
//
//	first or last given      -> that value
//	before given             -> defaultSize (count is ignored)
//	count given              -> count
//	otherwise                -> defaultSize
//
// and caps the result at maxSize.
func (a ConnectionArgs) PageSize(defaultSize, maxSize int) int {
	var size int
	switch {
	case a.First != nil:
		size = *a.First
	case a.Last != nil:
		size = *a.Last
	case a.Before != nil:
		size = defaultSize
	case a.Count != nil:
		size = *a.Count
	default:
		size = defaultSize
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return size
}

// ResolveConnection runs d as a cursor-paginated connection.
// Cursors are bound to d.Collection and d.OrderBy; one extra row is fetched
// to decide whether more rows lie beyond the page.
func ResolveConnection[T types.Record](ctx context.Context, r *Resolver, d query.Descriptor, args ConnectionArgs) (*Connection[T], error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}

	size := args.PageSize(r.config.DefaultPageSize, r.config.MaxPageSize)
	backward := args.Backward()

	var (
		key []any
		err error
	)
	if c := firstNonNil(args.After, args.Before); c != nil {
		key, err = cursor.Decode(d.Collection, d.OrderBy, *c)
		if err != nil {
			return nil, invalidCursor(err)
		}
	}

	conn := &Connection[T]{Edges: []Edge[T]{}}
	if backward {
		conn.PageInfo.HasNextPage = args.Before != nil
	} else {
		conn.PageInfo.HasPreviousPage = args.After != nil
	}
	if size == 0 {
		return conn, nil
	}

	desc := d
	if backward {
		desc = desc.Reversed()
	}
	desc = desc.WithSeek(key).WithLimit(size + 1)

	rows, err := r.exec.Select(ctx, desc)
	if err != nil {
		return nil, r.fail(d.Collection, internal(err))
	}

	hasMore := len(rows) > size
	if hasMore {
		rows = rows[:size]
	}
	if backward {
		slices.Reverse(rows)
		conn.PageInfo.HasPreviousPage = hasMore
	} else {
		conn.PageInfo.HasNextPage = hasMore
	}

	conn.Edges = make([]Edge[T], 0, len(rows))
	for _, row := range rows {
		node, ok := row.(T)
		if !ok {
			return nil, r.fail(d.Collection, internal(fmt.Errorf("unexpected %T in %s", row, d.Collection)))
		}
		rowKey, err := d.KeyOf(row)
		if err != nil {
			return nil, r.fail(d.Collection, internal(err))
		}
		c, err := cursor.Encode(d.Collection, d.OrderBy, rowKey)
		if err != nil {
			return nil, r.fail(d.Collection, internal(err))
		}
		conn.Edges = append(conn.Edges, Edge[T]{Cursor: c, Node: node})
	}

	if n := len(conn.Edges); n > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[n-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}
	return conn, nil
}

// TransactionsForAddress pages through transactions sent to, sent from or creating hash
func (r *Resolver) TransactionsForAddress(ctx context.Context, hash common.Address, args ConnectionArgs) (*Connection[*types.Transaction], error) {
	return ResolveConnection[*types.Transaction](ctx, r, query.TransactionsForAddress(hash), args)
}

// TokenTransfers pages through transfers of the token contract at hash
func (r *Resolver) TokenTransfers(ctx context.Context, hash common.Address, args ConnectionArgs) (*Connection[*types.TokenTransfer], error) {
	return ResolveConnection[*types.TokenTransfer](ctx, r, query.TokenTransfersForContract(hash), args)
}

// InternalTransactions pages through the visible internal transactions of txHash
func (r *Resolver) InternalTransactions(ctx context.Context, txHash common.Hash, args ConnectionArgs) (*Connection[*types.InternalTransaction], error) {
	return ResolveConnection[*types.InternalTransaction](ctx, r, query.InternalTransactionsForTransaction(txHash), args)
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
