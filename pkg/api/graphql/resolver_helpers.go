package graphql

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/graphql-go/graphql"

	"github.com/0xmhha/ledger-query/pkg/resolver"
)

// extractContext safely extracts context.Context from interface{}
func extractContext(ctx interface{}) context.Context {
	if ctx == nil {
		return context.Background()
	}
	if c, ok := ctx.(context.Context); ok {
		return c
	}
	return context.Background()
}

// parseConnectionArgs extracts Relay pagination arguments
func parseConnectionArgs(p graphql.ResolveParams) resolver.ConnectionArgs {
	var args resolver.ConnectionArgs
	if v, ok := p.Args["first"].(int); ok {
		args.First = &v
	}
	if v, ok := p.Args["last"].(int); ok {
		args.Last = &v
	}
	if v, ok := p.Args["count"].(int); ok {
		args.Count = &v
	}
	if v, ok := p.Args["after"].(string); ok {
		args.After = &v
	}
	if v, ok := p.Args["before"].(string); ok {
		args.Before = &v
	}
	return args
}

// parsePageArgs extracts offset pagination arguments. Missing values are left
// at zero for the resolver to default.
func parsePageArgs(p graphql.ResolveParams) (pageNumber, pageSize int) {
	if v, ok := p.Args["pageNumber"].(int); ok {
		pageNumber = v
	}
	if v, ok := p.Args["pageSize"].(int); ok {
		pageSize = v
	}
	return pageNumber, pageSize
}

func hashArg(p graphql.ResolveParams, name string) (common.Hash, error) {
	s, _ := p.Args[name].(string)
	return resolver.ParseHash(s)
}

func addressArg(p graphql.ResolveParams, name string) (common.Address, error) {
	s, _ := p.Args[name].(string)
	return resolver.ParseAddress(s)
}

// indexArg reads a non-negative Int argument
func indexArg(p graphql.ResolveParams, name string) (uint64, error) {
	v, ok := p.Args[name].(int)
	if !ok || v < 0 {
		return 0, &resolver.Error{Kind: resolver.KindInvalidArgument, Message: "Invalid " + name + "."}
	}
	return uint64(v), nil
}

// uintArg reads a decimal uint64 passed as a string
func uintArg(p graphql.ResolveParams, name string) (uint64, error) {
	s, _ := p.Args[name].(string)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &resolver.Error{Kind: resolver.KindInvalidArgument, Message: "Invalid " + name + ".", Err: err}
	}
	return v, nil
}

// sourceField reads a string field of the parent object map
func sourceField(p graphql.ResolveParams, name string) string {
	m, _ := p.Source.(map[string]interface{})
	s, _ := m[name].(string)
	return s
}
