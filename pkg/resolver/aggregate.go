package resolver

import (
	"context"
	"fmt"

	"github.com/0xmhha/ledger-query/pkg/query"
)

// TotalTransactionCount returns the number of indexed transactions.
// An empty ledger is reported as an internal error, the same way the count
// query yields no row at all when there is nothing to count.
func (r *Resolver) TotalTransactionCount(ctx context.Context) (uint64, error) {
	return r.count(ctx, query.TotalTransactionCount())
}

func (r *Resolver) count(ctx context.Context, a query.Aggregate) (uint64, error) {
	values, err := r.exec.Aggregate(ctx, a)
	if err != nil {
		return 0, r.fail(a.Name, internal(err))
	}
	if len(values) != 1 {
		return 0, r.fail(a.Name, internal(fmt.Errorf("%s: expected one value, got %d", a.Name, len(values))))
	}
	return values[0], nil
}
