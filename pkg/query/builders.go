package query

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xmhha/ledger-query/internal/constants"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Collection names. A cursor issued for one collection is rejected by every other.
const (
	CollectionAddressTransactions      = "address_transactions"
	CollectionTokenTransfers           = "token_transfers"
	CollectionTransactionInternalTxs   = "transaction_internal_transactions"
	CollectionWealthyAddresses         = "wealthy_addresses"
	CollectionBlocks                   = "blocks"
	CollectionTransactionsByInsertion  = "transactions_by_insertion"
	CollectionTransactionLookup        = "transaction"
	CollectionInternalTransactionByKey = "internal_transaction"
	CollectionTokenTransferByKey       = "token_transfer"
	CollectionBlockLookup              = "block"
	CollectionAddressLookup            = "address"
)

// lookupLimit fetches one row past a unique key so duplicates surface as errors
const lookupLimit = 2

// TransactionsForAddress returns every transaction that sent to, came from, or created h,
// newest first.
func TransactionsForAddress(h common.Address) Descriptor {
	return Descriptor{
		Collection: CollectionAddressTransactions,
		Table:      types.TableTransactions,
		Where: Or{
			Eq{Column: "to_address_hash", Value: h},
			Eq{Column: "from_address_hash", Value: h},
			Eq{Column: "created_contract_address_hash", Value: h},
		},
		OrderBy: []Order{
			{Column: "block_number", Kind: KindUint, Direction: Desc},
			{Column: "index", Kind: KindUint, Direction: Desc},
		},
	}
}

// TokenTransfersForContract returns the transfers of token contract h whose owning
// transaction is indexed. block_number alone does not order transfers within a block,
// so log_index and transaction_hash break ties.
func TokenTransfersForContract(h common.Address) Descriptor {
	return Descriptor{
		Collection: CollectionTokenTransfers,
		Table:      types.TableTokenTransfers,
		Where: And{
			Eq{Column: "token_contract_address_hash", Value: h},
			owningTransactionExists(),
		},
		OrderBy: []Order{
			{Column: "block_number", Kind: KindUint, Direction: Desc},
			{Column: "log_index", Kind: KindUint, Direction: Desc},
			{Column: "transaction_hash", Kind: KindHash, Direction: Desc},
		},
	}
}

// InternalTransactionsForTransaction returns the finalized internal transactions of h.
// A transaction that produced a single internal transaction is excluded entirely.
func InternalTransactionsForTransaction(h common.Hash) Descriptor {
	return Descriptor{
		Collection: CollectionTransactionInternalTxs,
		Table:      types.TableInternalTransactions,
		Where: And{
			Eq{Column: "transaction_hash", Value: h},
			finalizedOwner(),
			hasSibling(),
		},
		OrderBy: []Order{
			{Column: "index", Kind: KindUint, Direction: Asc},
		},
	}
}

// InternalTransactionByKey looks up one internal transaction under the same
// visibility rules as InternalTransactionsForTransaction.
func InternalTransactionByKey(txHash common.Hash, index uint64) Descriptor {
	return Descriptor{
		Collection: CollectionInternalTransactionByKey,
		Table:      types.TableInternalTransactions,
		Where: And{
			Eq{Column: "transaction_hash", Value: txHash},
			Eq{Column: "index", Value: index},
			finalizedOwner(),
			hasSibling(),
		},
		Limit: lookupLimit,
	}
}

// TokenTransferByKey looks up one token transfer by (transaction_hash, log_index)
func TokenTransferByKey(txHash common.Hash, logIndex uint64) Descriptor {
	return Descriptor{
		Collection: CollectionTokenTransferByKey,
		Table:      types.TableTokenTransfers,
		Where: And{
			Eq{Column: "transaction_hash", Value: txHash},
			Eq{Column: "log_index", Value: logIndex},
		},
		Limit: lookupLimit,
	}
}

// TransactionByHash looks up one transaction
func TransactionByHash(h common.Hash) Descriptor {
	return Descriptor{
		Collection: CollectionTransactionLookup,
		Table:      types.TableTransactions,
		Where:      Eq{Column: "hash", Value: h},
		Limit:      lookupLimit,
	}
}

// BlockByNumber looks up the consensus block at height n
func BlockByNumber(n uint64) Descriptor {
	return Descriptor{
		Collection: CollectionBlockLookup,
		Table:      types.TableBlocks,
		Where: And{
			Eq{Column: "number", Value: n},
			Eq{Column: "consensus", Value: true},
		},
		Limit: lookupLimit,
	}
}

// AddressByHash looks up one address
func AddressByHash(h common.Address) Descriptor {
	return Descriptor{
		Collection: CollectionAddressLookup,
		Table:      types.TableAddresses,
		Where:      Eq{Column: "hash", Value: h},
		Limit:      lookupLimit,
	}
}

// AddressesByHashes looks up a batch of addresses, ordered by hash
func AddressesByHashes(hashes []common.Address) Descriptor {
	match := make(Or, 0, len(hashes))
	for _, h := range hashes {
		match = append(match, Eq{Column: "hash", Value: h})
	}
	return Descriptor{
		Collection: CollectionAddressLookup,
		Table:      types.TableAddresses,
		Where:      match,
		OrderBy: []Order{
			{Column: "hash", Kind: KindAddress, Direction: Asc},
		},
	}
}

// WealthyAddresses returns addresses holding a positive balance, richest first
func WealthyAddresses(pageNumber, pageSize int) Descriptor {
	pageNumber, pageSize = ClampPage(pageNumber, pageSize, 0)
	return Descriptor{
		Collection: CollectionWealthyAddresses,
		Table:      types.TableAddresses,
		Where:      Gt{Column: "fetched_coin_balance", Value: uint64(0)},
		OrderBy: []Order{
			{Column: "fetched_coin_balance", Kind: KindBigInt, Direction: Desc},
			{Column: "hash", Kind: KindAddress, Direction: Asc},
		},
		Limit:  pageSize,
		Offset: OffsetFor(pageNumber, pageSize),
	}
}

// BlockList returns consensus blocks, newest first
func BlockList(pageNumber, pageSize int) Descriptor {
	pageNumber, pageSize = ClampPage(pageNumber, pageSize, 0)
	return Descriptor{
		Collection: CollectionBlocks,
		Table:      types.TableBlocks,
		Where:      Eq{Column: "consensus", Value: true},
		OrderBy: []Order{
			{Column: "timestamp", Kind: KindTime, Direction: Desc},
			{Column: "number", Kind: KindUint, Direction: Desc},
		},
		Limit:  pageSize,
		Offset: OffsetFor(pageNumber, pageSize),
	}
}

// TransactionListByInsertion returns transactions in reverse insertion order
func TransactionListByInsertion(pageNumber, pageSize int) Descriptor {
	pageNumber, pageSize = ClampPage(pageNumber, pageSize, 0)
	return Descriptor{
		Collection: CollectionTransactionsByInsertion,
		Table:      types.TableTransactions,
		OrderBy: []Order{
			{Column: "inserted_at", Kind: KindTime, Direction: Desc},
			{Column: "hash", Kind: KindHash, Direction: Desc},
		},
		Limit:  pageSize,
		Offset: OffsetFor(pageNumber, pageSize),
	}
}

// TotalTransactionCount counts every indexed transaction
func TotalTransactionCount() Aggregate {
	return Aggregate{
		Name:  "total_transaction_count",
		Table: types.TableTransactions,
		Func:  Count,
	}
}

// ClampPage normalizes offset pagination parameters. A page number below 1 is treated as 1,
// a page size below the minimum falls back to the default, and a positive maxPageSize caps it.
func ClampPage(pageNumber, pageSize, maxPageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < constants.MinPageSize {
		pageSize = constants.DefaultPageSize
	}
	if maxPageSize > 0 && pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageNumber, pageSize
}

// OffsetFor returns the row offset of a 1-based page
func OffsetFor(pageNumber, pageSize int) int {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 0 {
		pageSize = 0
	}
	return (pageNumber - 1) * pageSize
}

// owningTransactionExists requires the row's transaction_hash to name an indexed transaction
func owningTransactionExists() Predicate {
	return Exists{
		Table: types.TableTransactions,
		On:    []Correlation{On("hash", "transaction_hash")},
	}
}

// finalizedOwner requires the owning transaction to sit in a block with no pending operation
func finalizedOwner() Predicate {
	return Exists{
		Table: types.TableTransactions,
		On:    []Correlation{On("hash", "transaction_hash")},
		Where: Not{Predicate: Exists{
			Table: types.TablePendingBlockOperations,
			On:    []Correlation{On("block_hash", "block_hash")},
		}},
	}
}

// hasSibling requires another internal transaction under the same transaction
func hasSibling() Predicate {
	return Exists{
		Table: types.TableInternalTransactions,
		On: []Correlation{
			On("transaction_hash", "transaction_hash"),
			{Inner: "index", Outer: "index", Op: OpNe},
		},
	}
}
