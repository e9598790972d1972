package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/storage"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// GetTransaction returns the transaction with the given hash
func (r *Resolver) GetTransaction(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	return lookupOne[*types.Transaction](ctx, r, query.TransactionByHash(hash), MsgTransactionNotFound)
}

// GetInternalTransaction returns the internal transaction (txHash, index). Internal
// transactions of pending blocks and only-children are not visible.
func (r *Resolver) GetInternalTransaction(ctx context.Context, txHash common.Hash, index uint64) (*types.InternalTransaction, error) {
	return lookupOne[*types.InternalTransaction](ctx, r, query.InternalTransactionByKey(txHash, index), MsgInternalTransactionNotFound)
}

// GetTokenTransfer returns the token transfer emitted at logIndex of txHash
func (r *Resolver) GetTokenTransfer(ctx context.Context, txHash common.Hash, logIndex uint64) (*types.TokenTransfer, error) {
	return lookupOne[*types.TokenTransfer](ctx, r, query.TokenTransferByKey(txHash, logIndex), MsgTokenTransferNotFound)
}

// GetBlock returns the consensus block at number
func (r *Resolver) GetBlock(ctx context.Context, number uint64) (*types.Block, error) {
	return lookupOne[*types.Block](ctx, r, query.BlockByNumber(number), MsgBlockNotFound)
}

// GetAddress returns the address with the given hash
func (r *Resolver) GetAddress(ctx context.Context, hash common.Address) (*types.Address, error) {
	return lookupOne[*types.Address](ctx, r, query.AddressByHash(hash), MsgAddressNotFound)
}

// GetAddresses returns the known addresses among hashes, ordered by hash.
// Unknown hashes are skipped.
func (r *Resolver) GetAddresses(ctx context.Context, hashes []common.Address) ([]*types.Address, error) {
	if len(hashes) == 0 {
		return []*types.Address{}, nil
	}
	if limit := r.config.MaxPageSize; limit > 0 && len(hashes) > limit {
		return nil, invalidArgument("at most %d hashes may be requested, got %d", limit, len(hashes))
	}
	return selectAll[*types.Address](ctx, r, query.AddressesByHashes(hashes))
}

// lookupOne runs a single-entity descriptor. A key that matches more than one row
// means the stored data is corrupt, not that the caller asked for a list.
func lookupOne[T types.Record](ctx context.Context, r *Resolver, d query.Descriptor, notFoundMsg string) (T, error) {
	var zero T

	rows, err := r.exec.Select(ctx, d)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNoRows) {
			return zero, notFound(notFoundMsg, err)
		}
		return zero, r.fail(d.Collection, internal(err))
	}

	switch len(rows) {
	case 0:
		return zero, notFound(notFoundMsg, nil)
	case 1:
	default:
		return zero, r.fail(d.Collection, internal(fmt.Errorf("%s: expected one row, got %d", d.Collection, len(rows))))
	}

	item, ok := rows[0].(T)
	if !ok {
		return zero, r.fail(d.Collection, internal(fmt.Errorf("unexpected %T in %s", rows[0], d.Collection)))
	}
	return item, nil
}
