package graphql

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/logger"
	"github.com/0xmhha/ledger-query/pkg/resolver"
)

// resolveAddress resolves one address by hash
func (s *Schema) resolveAddress(p graphql.ResolveParams) (interface{}, error) {
	hash, err := addressArg(p, "hash")
	if err != nil {
		return nil, err
	}
	addr, err := s.resolver.GetAddress(extractContext(p.Context), hash)
	if err != nil {
		return nil, s.reportError(p.Context, "address", err)
	}
	return addressToMap(addr), nil
}

// resolveAddresses resolves a batch of addresses, skipping unknown hashes
func (s *Schema) resolveAddresses(p graphql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["hashes"].([]interface{})
	hashes := make([]common.Address, 0, len(raw))
	for _, v := range raw {
		str, _ := v.(string)
		h, err := resolver.ParseAddress(str)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}

	addrs, err := s.resolver.GetAddresses(extractContext(p.Context), hashes)
	if err != nil {
		return nil, s.reportError(p.Context, "addresses", err)
	}
	return listToMaps(addrs, addressToMap), nil
}

// resolveBlock resolves the consensus block at a height
func (s *Schema) resolveBlock(p graphql.ResolveParams) (interface{}, error) {
	number, err := uintArg(p, "number")
	if err != nil {
		return nil, err
	}
	block, err := s.resolver.GetBlock(extractContext(p.Context), number)
	if err != nil {
		return nil, s.reportError(p.Context, "block", err)
	}
	return blockToMap(block), nil
}

// resolveTransaction resolves a transaction by hash
func (s *Schema) resolveTransaction(p graphql.ResolveParams) (interface{}, error) {
	hash, err := hashArg(p, "hash")
	if err != nil {
		return nil, err
	}
	tx, err := s.resolver.GetTransaction(extractContext(p.Context), hash)
	if err != nil {
		return nil, s.reportError(p.Context, "transaction", err)
	}
	return transactionToMap(tx), nil
}

// resolveInternalTransaction resolves an internal transaction by (transactionHash, index)
func (s *Schema) resolveInternalTransaction(p graphql.ResolveParams) (interface{}, error) {
	hash, err := hashArg(p, "transactionHash")
	if err != nil {
		return nil, err
	}
	index, err := indexArg(p, "index")
	if err != nil {
		return nil, err
	}
	it, err := s.resolver.GetInternalTransaction(extractContext(p.Context), hash, index)
	if err != nil {
		return nil, s.reportError(p.Context, "internalTransaction", err)
	}
	return internalTransactionToMap(it), nil
}

// resolveTokenTransfer resolves a token transfer by (transactionHash, logIndex)
func (s *Schema) resolveTokenTransfer(p graphql.ResolveParams) (interface{}, error) {
	hash, err := hashArg(p, "transactionHash")
	if err != nil {
		return nil, err
	}
	logIndex, err := indexArg(p, "logIndex")
	if err != nil {
		return nil, err
	}
	tt, err := s.resolver.GetTokenTransfer(extractContext(p.Context), hash, logIndex)
	if err != nil {
		return nil, s.reportError(p.Context, "tokenTransfer", err)
	}
	return tokenTransferToMap(tt), nil
}

// resolveBlocks resolves a page of consensus blocks
func (s *Schema) resolveBlocks(p graphql.ResolveParams) (interface{}, error) {
	pageNumber, pageSize := parsePageArgs(p)
	page, err := s.resolver.Blocks(extractContext(p.Context), pageNumber, pageSize)
	if err != nil {
		return nil, s.reportError(p.Context, "blocks", err)
	}
	return listToMaps(page.Items, blockToMap), nil
}

// resolveTransactions resolves a page of transactions in reverse insertion order
func (s *Schema) resolveTransactions(p graphql.ResolveParams) (interface{}, error) {
	pageNumber, pageSize := parsePageArgs(p)
	page, err := s.resolver.RecentTransactions(extractContext(p.Context), pageNumber, pageSize)
	if err != nil {
		return nil, s.reportError(p.Context, "transactions", err)
	}
	return listToMaps(page.Items, transactionToMap), nil
}

// resolveWealthyAddresses resolves a page of the richest addresses
func (s *Schema) resolveWealthyAddresses(p graphql.ResolveParams) (interface{}, error) {
	pageNumber, pageSize := parsePageArgs(p)
	page, err := s.resolver.WealthyAddresses(extractContext(p.Context), pageNumber, pageSize)
	if err != nil {
		return nil, s.reportError(p.Context, "wealthyAddresses", err)
	}
	return listToMaps(page.Items, addressToMap), nil
}

// resolveTokenTransfers resolves the transfer connection of a token contract
func (s *Schema) resolveTokenTransfers(p graphql.ResolveParams) (interface{}, error) {
	hash, err := addressArg(p, "tokenContractAddressHash")
	if err != nil {
		return nil, err
	}
	conn, err := s.resolver.TokenTransfers(extractContext(p.Context), hash, parseConnectionArgs(p))
	if err != nil {
		return nil, s.reportError(p.Context, "tokenTransfers", err)
	}
	return connectionToMap(conn, tokenTransferToMap), nil
}

// resolveAddressTransactions resolves Address.transactions
func (s *Schema) resolveAddressTransactions(p graphql.ResolveParams) (interface{}, error) {
	hash, err := resolver.ParseAddress(sourceField(p, "hash"))
	if err != nil {
		return nil, err
	}
	conn, err := s.resolver.TransactionsForAddress(extractContext(p.Context), hash, parseConnectionArgs(p))
	if err != nil {
		return nil, s.reportError(p.Context, "Address.transactions", err)
	}
	return connectionToMap(conn, transactionToMap), nil
}

// resolveTransactionInternalTransactions resolves Transaction.internalTransactions
func (s *Schema) resolveTransactionInternalTransactions(p graphql.ResolveParams) (interface{}, error) {
	hash, err := resolver.ParseHash(sourceField(p, "hash"))
	if err != nil {
		return nil, err
	}
	conn, err := s.resolver.InternalTransactions(extractContext(p.Context), hash, parseConnectionArgs(p))
	if err != nil {
		return nil, s.reportError(p.Context, "Transaction.internalTransactions", err)
	}
	return connectionToMap(conn, internalTransactionToMap), nil
}

// resolveTotalTransactionCount resolves the number of indexed transactions
func (s *Schema) resolveTotalTransactionCount(p graphql.ResolveParams) (interface{}, error) {
	n, err := s.resolver.TotalTransactionCount(extractContext(p.Context))
	if err != nil {
		return nil, s.reportError(p.Context, "totalTransactionCount", err)
	}
	return fmt.Sprintf("%d", n), nil
}

// reportError logs caller errors at debug level and returns err unchanged.
// Internal failures are already logged with their cause by the resolver.
func (s *Schema) reportError(ctx interface{}, field string, err error) error {
	if kind := resolver.KindOf(err); kind != resolver.KindInternal {
		logger.FromContext(extractContext(ctx)).Debug("query rejected",
			zap.String("field", field),
			zap.Stringer("kind", kind),
			zap.String("message", err.Error()),
		)
	}
	return err
}
