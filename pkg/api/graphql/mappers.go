package graphql

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/0xmhha/ledger-query/pkg/resolver"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// blockToMap converts a block to a GraphQL-friendly map
func blockToMap(b *types.Block) map[string]interface{} {
	if b == nil {
		return nil
	}
	return map[string]interface{}{
		"number":     fmt.Sprintf("%d", b.Number),
		"hash":       b.Hash.Hex(),
		"parentHash": b.ParentHash.Hex(),
		"timestamp":  fmt.Sprintf("%d", b.Timestamp.Unix()),
		"miner":      b.MinerHash.Hex(),
		"gasLimit":   fmt.Sprintf("%d", b.GasLimit),
		"gasUsed":    fmt.Sprintf("%d", b.GasUsed),
		"size":       fmt.Sprintf("%d", b.Size),
		"consensus":  b.Consensus,
	}
}

// transactionToMap converts a transaction to a GraphQL-friendly map
func transactionToMap(tx *types.Transaction) map[string]interface{} {
	if tx == nil {
		return nil
	}
	return map[string]interface{}{
		"hash":                   tx.Hash.Hex(),
		"blockNumber":            fmt.Sprintf("%d", tx.BlockNumber),
		"blockHash":              tx.BlockHash.Hex(),
		"index":                  int(tx.Index),
		"from":                   tx.FromAddressHash.Hex(),
		"to":                     addressOrNil(tx.ToAddressHash),
		"createdContractAddress": addressOrNil(tx.CreatedContractAddressHash),
		"value":                  bigOrZero(tx.Value),
		"gas":                    fmt.Sprintf("%d", tx.Gas),
		"gasPrice":               bigOrNil(tx.GasPrice),
		"gasUsed":                fmt.Sprintf("%d", tx.GasUsed),
		"nonce":                  fmt.Sprintf("%d", tx.Nonce),
		"input":                  hexutil.Encode(tx.Input),
		"status":                 int(tx.Status),
		"insertedAt":             tx.InsertedAt,
	}
}

// internalTransactionToMap converts an internal transaction to a GraphQL-friendly map
func internalTransactionToMap(it *types.InternalTransaction) map[string]interface{} {
	if it == nil {
		return nil
	}
	traceAddress := make([]interface{}, len(it.TraceAddress))
	for i, v := range it.TraceAddress {
		traceAddress[i] = int(v)
	}

	result := map[string]interface{}{
		"transactionHash":        it.TransactionHash.Hex(),
		"index":                  int(it.Index),
		"blockNumber":            fmt.Sprintf("%d", it.BlockNumber),
		"blockHash":              it.BlockHash.Hex(),
		"type":                   it.Type,
		"callType":               nil,
		"from":                   it.FromAddressHash.Hex(),
		"to":                     addressOrNil(it.ToAddressHash),
		"createdContractAddress": addressOrNil(it.CreatedContractAddressHash),
		"value":                  bigOrZero(it.Value),
		"gas":                    fmt.Sprintf("%d", it.Gas),
		"gasUsed":                fmt.Sprintf("%d", it.GasUsed),
		"input":                  nil,
		"output":                 nil,
		"error":                  nil,
		"traceAddress":           traceAddress,
	}
	if it.CallType != "" {
		result["callType"] = it.CallType
	}
	if len(it.Input) > 0 {
		result["input"] = hexutil.Encode(it.Input)
	}
	if len(it.Output) > 0 {
		result["output"] = hexutil.Encode(it.Output)
	}
	if it.Error != "" {
		result["error"] = it.Error
	}
	return result
}

// tokenTransferToMap converts a token transfer to a GraphQL-friendly map
func tokenTransferToMap(tt *types.TokenTransfer) map[string]interface{} {
	if tt == nil {
		return nil
	}
	return map[string]interface{}{
		"transactionHash":      tt.TransactionHash.Hex(),
		"logIndex":             int(tt.LogIndex),
		"blockNumber":          fmt.Sprintf("%d", tt.BlockNumber),
		"blockHash":            tt.BlockHash.Hex(),
		"from":                 tt.FromAddressHash.Hex(),
		"to":                   tt.ToAddressHash.Hex(),
		"tokenContractAddress": tt.TokenContractAddressHash.Hex(),
		"amount":               bigOrNil(tt.Amount),
		"tokenId":              bigOrNil(tt.TokenID),
	}
}

// addressToMap converts an address to a GraphQL-friendly map
func addressToMap(a *types.Address) map[string]interface{} {
	if a == nil {
		return nil
	}
	result := map[string]interface{}{
		"hash":                          a.Hash.Hex(),
		"fetchedCoinBalance":            bigOrNil(a.FetchedCoinBalance),
		"fetchedCoinBalanceBlockNumber": fmt.Sprintf("%d", a.FetchedCoinBalanceBlockNumber),
		"contractCode":                  nil,
		"nonce":                         fmt.Sprintf("%d", a.Nonce),
		"isContract":                    a.IsContract(),
	}
	if a.IsContract() {
		result["contractCode"] = hexutil.Encode(a.ContractCode)
	}
	return result
}

// connectionToMap converts a resolved connection, mapping each node with toMap
func connectionToMap[T types.Record](c *resolver.Connection[T], toMap func(T) map[string]interface{}) map[string]interface{} {
	edges := make([]interface{}, len(c.Edges))
	for i, e := range c.Edges {
		edges[i] = map[string]interface{}{
			"cursor": e.Cursor,
			"node":   toMap(e.Node),
		}
	}
	return map[string]interface{}{
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"hasNextPage":     c.PageInfo.HasNextPage,
			"hasPreviousPage": c.PageInfo.HasPreviousPage,
			"startCursor":     stringOrNil(c.PageInfo.StartCursor),
			"endCursor":       stringOrNil(c.PageInfo.EndCursor),
		},
	}
}

// listToMaps maps every item with toMap
func listToMaps[T any](items []T, toMap func(T) map[string]interface{}) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = toMap(item)
	}
	return out
}

func addressOrNil(a *common.Address) interface{} {
	if a == nil {
		return nil
	}
	return a.Hex()
}

func bigOrNil(v *big.Int) interface{} {
	if v == nil {
		return nil
	}
	return v.String()
}

func bigOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
