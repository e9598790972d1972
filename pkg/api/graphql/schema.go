package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/pkg/resolver"
)

// Schema holds the GraphQL schema
type Schema struct {
	schema   graphql.Schema
	resolver *resolver.Resolver
	logger   *zap.Logger
	types    *objects
}

// SchemaBuilder helps construct a GraphQL schema using the Builder pattern
type SchemaBuilder struct {
	schema  *Schema
	queries graphql.Fields
}

// NewSchemaBuilder creates a new schema builder
func NewSchemaBuilder(res *resolver.Resolver, logger *zap.Logger) *SchemaBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Schema{
		resolver: res,
		logger:   logger,
	}
	s.types = s.buildObjects()

	return &SchemaBuilder{
		schema:  s,
		queries: make(graphql.Fields),
	}
}

// WithEntityQueries adds single-entity lookups
func (b *SchemaBuilder) WithEntityQueries() *SchemaBuilder {
	s := b.schema

	b.queries["address"] = &graphql.Field{
		Type: s.types.address,
		Args: graphql.FieldConfigArgument{
			"hash": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(addressType),
			},
		},
		Resolve: s.resolveAddress,
	}
	b.queries["addresses"] = &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(s.types.address)),
		Args: graphql.FieldConfigArgument{
			"hashes": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(addressType))),
			},
		},
		Resolve: s.resolveAddresses,
	}
	b.queries["block"] = &graphql.Field{
		Type: s.types.block,
		Args: graphql.FieldConfigArgument{
			"number": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(bigIntType),
			},
		},
		Resolve: s.resolveBlock,
	}
	b.queries["transaction"] = &graphql.Field{
		Type: s.types.transaction,
		Args: graphql.FieldConfigArgument{
			"hash": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(hashType),
			},
		},
		Resolve: s.resolveTransaction,
	}
	b.queries["internalTransaction"] = &graphql.Field{
		Type: s.types.internalTransaction,
		Args: graphql.FieldConfigArgument{
			"transactionHash": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(hashType),
			},
			"index": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.Int),
			},
		},
		Resolve: s.resolveInternalTransaction,
	}
	b.queries["tokenTransfer"] = &graphql.Field{
		Type: s.types.tokenTransfer,
		Args: graphql.FieldConfigArgument{
			"transactionHash": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(hashType),
			},
			"logIndex": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.Int),
			},
		},
		Resolve: s.resolveTokenTransfer,
	}

	return b
}

// WithListQueries adds offset-paginated lists
func (b *SchemaBuilder) WithListQueries() *SchemaBuilder {
	s := b.schema

	b.queries["blocks"] = &graphql.Field{
		Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(s.types.block))),
		Description: "Consensus blocks, newest first",
		Args:        pageArgs(),
		Resolve:     s.resolveBlocks,
	}
	b.queries["transactions"] = &graphql.Field{
		Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(s.types.transaction))),
		Description: "Transactions, most recently indexed first",
		Args:        pageArgs(),
		Resolve:     s.resolveTransactions,
	}
	b.queries["wealthyAddresses"] = &graphql.Field{
		Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(s.types.address))),
		Description: "Addresses with a positive balance, richest first",
		Args:        pageArgs(),
		Resolve:     s.resolveWealthyAddresses,
	}

	return b
}

// WithConnectionQueries adds top-level cursor-paginated collections
func (b *SchemaBuilder) WithConnectionQueries() *SchemaBuilder {
	s := b.schema

	args := connectionArgs()
	args["tokenContractAddressHash"] = &graphql.ArgumentConfig{
		Type: graphql.NewNonNull(addressType),
	}
	b.queries["tokenTransfers"] = &graphql.Field{
		Type:    graphql.NewNonNull(s.types.tokenTransferConnection),
		Args:    args,
		Resolve: s.resolveTokenTransfers,
	}

	return b
}

// WithAggregateQueries adds ledger-wide aggregates
func (b *SchemaBuilder) WithAggregateQueries() *SchemaBuilder {
	s := b.schema

	b.queries["totalTransactionCount"] = &graphql.Field{
		Type:    graphql.NewNonNull(bigIntType),
		Resolve: s.resolveTotalTransactionCount,
	}

	return b
}

// Build creates the final schema
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.schema.resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: b.queries,
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return nil, err
	}

	b.schema.schema = schema
	return b.schema, nil
}

// NewSchema creates the full ledger query schema
func NewSchema(res *resolver.Resolver, logger *zap.Logger) (*Schema, error) {
	return NewSchemaBuilder(res, logger).
		WithEntityQueries().
		WithListQueries().
		WithConnectionQueries().
		WithAggregateQueries().
		Build()
}
