package resolver

import (
	"context"
	"fmt"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Page is one page of an offset-paginated collection
type Page[T types.Record] struct {
	Items      []T
	PageNumber int
	PageSize   int
}

// ResolvePage runs an offset-paginated descriptor built for pageNumber and pageSize
func ResolvePage[T types.Record](ctx context.Context, r *Resolver, d query.Descriptor, pageNumber, pageSize int) (*Page[T], error) {
	items, err := selectAll[T](ctx, r, d)
	if err != nil {
		return nil, err
	}
	return &Page[T]{
		Items:      items,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}, nil
}

// WealthyAddresses returns the richest addresses, one page at a time
func (r *Resolver) WealthyAddresses(ctx context.Context, pageNumber, pageSize int) (*Page[*types.Address], error) {
	pageNumber, pageSize = r.clampPage(pageNumber, pageSize)
	return ResolvePage[*types.Address](ctx, r, query.WealthyAddresses(pageNumber, pageSize), pageNumber, pageSize)
}

// Blocks returns consensus blocks, newest first
func (r *Resolver) Blocks(ctx context.Context, pageNumber, pageSize int) (*Page[*types.Block], error) {
	pageNumber, pageSize = r.clampPage(pageNumber, pageSize)
	return ResolvePage[*types.Block](ctx, r, query.BlockList(pageNumber, pageSize), pageNumber, pageSize)
}

// RecentTransactions returns transactions in reverse insertion order
func (r *Resolver) RecentTransactions(ctx context.Context, pageNumber, pageSize int) (*Page[*types.Transaction], error) {
	pageNumber, pageSize = r.clampPage(pageNumber, pageSize)
	return ResolvePage[*types.Transaction](ctx, r, query.TransactionListByInsertion(pageNumber, pageSize), pageNumber, pageSize)
}

func (r *Resolver) clampPage(pageNumber, pageSize int) (int, int) {
	if pageSize < 1 {
		pageSize = r.config.DefaultPageSize
	}
	return query.ClampPage(pageNumber, pageSize, r.config.MaxPageSize)
}

// selectAll runs d and asserts every row is a T
func selectAll[T types.Record](ctx context.Context, r *Resolver, d query.Descriptor) ([]T, error) {
	rows, err := r.exec.Select(ctx, d)
	if err != nil {
		return nil, r.fail(d.Collection, internal(err))
	}
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item, ok := row.(T)
		if !ok {
			return nil, r.fail(d.Collection, internal(fmt.Errorf("unexpected %T in %s", row, d.Collection)))
		}
		items = append(items, item)
	}
	return items, nil
}
