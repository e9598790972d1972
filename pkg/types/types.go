package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Table names of the persisted ledger collections
const (
	TableBlocks                 = "blocks"
	TableTransactions           = "transactions"
	TableInternalTransactions   = "internal_transactions"
	TableTokenTransfers         = "token_transfers"
	TableAddresses              = "addresses"
	TablePendingBlockOperations = "pending_block_operations"
)

// Record is a read-only row of one ledger table.
// Field exposes column values for predicate evaluation and cursor keys; nullable columns
// report (nil, true) when unset and unknown columns report (nil, false).
type Record interface {
	Table() string
	Field(column string) (any, bool)
}

// Block represents an indexed block
type Block struct {
	Hash       common.Hash    `json:"hash"`
	ParentHash common.Hash    `json:"parentHash"`
	Number     uint64         `json:"number"`
	Timestamp  time.Time      `json:"timestamp"`
	MinerHash  common.Address `json:"minerHash"`
	GasUsed    uint64         `json:"gasUsed"`
	GasLimit   uint64         `json:"gasLimit"`
	Size       uint64         `json:"size"`
	// Consensus is false for blocks that lost a reorg
	Consensus bool `json:"consensus"`
}

// Table implements Record
func (b *Block) Table() string { return TableBlocks }

// Field implements Record
func (b *Block) Field(column string) (any, bool) {
	switch column {
	case "hash":
		return b.Hash, true
	case "parent_hash":
		return b.ParentHash, true
	case "number":
		return b.Number, true
	case "timestamp":
		return b.Timestamp, true
	case "miner_hash":
		return b.MinerHash, true
	case "gas_used":
		return b.GasUsed, true
	case "gas_limit":
		return b.GasLimit, true
	case "size":
		return b.Size, true
	case "consensus":
		return b.Consensus, true
	}
	return nil, false
}

// Transaction represents an indexed transaction
type Transaction struct {
	Hash                       common.Hash     `json:"hash"`
	BlockNumber                uint64          `json:"blockNumber"`
	BlockHash                  common.Hash     `json:"blockHash"`
	Index                      uint64          `json:"index"`
	FromAddressHash            common.Address  `json:"fromAddressHash"`
	ToAddressHash              *common.Address `json:"toAddressHash,omitempty"`
	CreatedContractAddressHash *common.Address `json:"createdContractAddressHash,omitempty"`
	Value                      *big.Int        `json:"value"`
	Gas                        uint64          `json:"gas"`
	GasPrice                   *big.Int        `json:"gasPrice"`
	GasUsed                    uint64          `json:"gasUsed"`
	Nonce                      uint64          `json:"nonce"`
	Input                      hexutil.Bytes   `json:"input"`
	Status                     uint64          `json:"status"`
	InsertedAt                 time.Time       `json:"insertedAt"`
}

// Table implements Record
func (t *Transaction) Table() string { return TableTransactions }

// Field implements Record
func (t *Transaction) Field(column string) (any, bool) {
	switch column {
	case "hash":
		return t.Hash, true
	case "block_number":
		return t.BlockNumber, true
	case "block_hash":
		return t.BlockHash, true
	case "index":
		return t.Index, true
	case "from_address_hash":
		return t.FromAddressHash, true
	case "to_address_hash":
		return optionalAddress(t.ToAddressHash), true
	case "created_contract_address_hash":
		return optionalAddress(t.CreatedContractAddressHash), true
	case "value":
		return optionalBig(t.Value), true
	case "gas":
		return t.Gas, true
	case "gas_price":
		return optionalBig(t.GasPrice), true
	case "gas_used":
		return t.GasUsed, true
	case "nonce":
		return t.Nonce, true
	case "status":
		return t.Status, true
	case "inserted_at":
		return t.InsertedAt, true
	}
	return nil, false
}

// InternalTransaction is a call trace produced while executing a transaction.
// It is identified by (TransactionHash, Index).
type InternalTransaction struct {
	TransactionHash            common.Hash     `json:"transactionHash"`
	Index                      uint64          `json:"index"`
	BlockNumber                uint64          `json:"blockNumber"`
	BlockHash                  common.Hash     `json:"blockHash"`
	Type                       string          `json:"type"`
	CallType                   string          `json:"callType,omitempty"`
	FromAddressHash            common.Address  `json:"fromAddressHash"`
	ToAddressHash              *common.Address `json:"toAddressHash,omitempty"`
	CreatedContractAddressHash *common.Address `json:"createdContractAddressHash,omitempty"`
	Value                      *big.Int        `json:"value"`
	Gas                        uint64          `json:"gas"`
	GasUsed                    uint64          `json:"gasUsed"`
	Input                      hexutil.Bytes   `json:"input,omitempty"`
	Output                     hexutil.Bytes   `json:"output,omitempty"`
	Error                      string          `json:"error,omitempty"`
	TraceAddress               []uint64        `json:"traceAddress"`
}

// Table implements Record
func (it *InternalTransaction) Table() string { return TableInternalTransactions }

// Field implements Record
func (it *InternalTransaction) Field(column string) (any, bool) {
	switch column {
	case "transaction_hash":
		return it.TransactionHash, true
	case "index":
		return it.Index, true
	case "block_number":
		return it.BlockNumber, true
	case "block_hash":
		return it.BlockHash, true
	case "type":
		return it.Type, true
	case "call_type":
		return it.CallType, true
	case "from_address_hash":
		return it.FromAddressHash, true
	case "to_address_hash":
		return optionalAddress(it.ToAddressHash), true
	case "created_contract_address_hash":
		return optionalAddress(it.CreatedContractAddressHash), true
	case "value":
		return optionalBig(it.Value), true
	case "gas":
		return it.Gas, true
	case "gas_used":
		return it.GasUsed, true
	case "error":
		return it.Error, true
	}
	return nil, false
}

// TokenTransfer is a token Transfer event, identified by (TransactionHash, LogIndex)
type TokenTransfer struct {
	TransactionHash          common.Hash    `json:"transactionHash"`
	LogIndex                 uint64         `json:"logIndex"`
	BlockNumber              uint64         `json:"blockNumber"`
	BlockHash                common.Hash    `json:"blockHash"`
	FromAddressHash          common.Address `json:"fromAddressHash"`
	ToAddressHash            common.Address `json:"toAddressHash"`
	TokenContractAddressHash common.Address `json:"tokenContractAddressHash"`
	Amount                   *big.Int       `json:"amount,omitempty"`
	TokenID                  *big.Int       `json:"tokenId,omitempty"`
}

// Table implements Record
func (tt *TokenTransfer) Table() string { return TableTokenTransfers }

// Field implements Record
func (tt *TokenTransfer) Field(column string) (any, bool) {
	switch column {
	case "transaction_hash":
		return tt.TransactionHash, true
	case "log_index":
		return tt.LogIndex, true
	case "block_number":
		return tt.BlockNumber, true
	case "block_hash":
		return tt.BlockHash, true
	case "from_address_hash":
		return tt.FromAddressHash, true
	case "to_address_hash":
		return tt.ToAddressHash, true
	case "token_contract_address_hash":
		return tt.TokenContractAddressHash, true
	case "amount":
		return optionalBig(tt.Amount), true
	case "token_id":
		return optionalBig(tt.TokenID), true
	}
	return nil, false
}

// Address represents an account or contract with its last fetched coin balance
type Address struct {
	Hash                          common.Address `json:"hash"`
	FetchedCoinBalance            *big.Int       `json:"fetchedCoinBalance,omitempty"`
	FetchedCoinBalanceBlockNumber uint64         `json:"fetchedCoinBalanceBlockNumber"`
	ContractCode                  hexutil.Bytes  `json:"contractCode,omitempty"`
	Nonce                         uint64         `json:"nonce"`
}

// Table implements Record
func (a *Address) Table() string { return TableAddresses }

// Field implements Record
func (a *Address) Field(column string) (any, bool) {
	switch column {
	case "hash":
		return a.Hash, true
	case "fetched_coin_balance":
		return optionalBig(a.FetchedCoinBalance), true
	case "fetched_coin_balance_block_number":
		return a.FetchedCoinBalanceBlockNumber, true
	case "nonce":
		return a.Nonce, true
	}
	return nil, false
}

// IsContract reports whether the address has deployed code
func (a *Address) IsContract() bool {
	return len(a.ContractCode) > 0
}

// PendingBlockOperation marks a block whose internal transactions are still being traced
type PendingBlockOperation struct {
	BlockHash common.Hash `json:"blockHash"`
}

// Table implements Record
func (p *PendingBlockOperation) Table() string { return TablePendingBlockOperations }

// Field implements Record
func (p *PendingBlockOperation) Field(column string) (any, bool) {
	if column == "block_hash" {
		return p.BlockHash, true
	}
	return nil, false
}

// optionalAddress turns a nil pointer into an untyped nil so callers can test for NULL
func optionalAddress(addr *common.Address) any {
	if addr == nil {
		return nil
	}
	return *addr
}

func optionalBig(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v
}
