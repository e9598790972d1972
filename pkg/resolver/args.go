package resolver

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xmhha/ledger-query/pkg/types"
)

// ParseHash decodes a caller-supplied block or transaction hash
func ParseHash(s string) (common.Hash, error) {
	h, err := types.ParseHash(s)
	if err != nil {
		return common.Hash{}, &Error{Kind: KindInvalidArgument, Message: "Invalid hash.", Err: err}
	}
	return h, nil
}

// ParseAddress decodes a caller-supplied address hash
func ParseAddress(s string) (common.Address, error) {
	a, err := types.ParseAddress(s)
	if err != nil {
		return common.Address{}, &Error{Kind: KindInvalidArgument, Message: "Invalid address.", Err: err}
	}
	return a, nil
}
