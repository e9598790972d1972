package graphql

import (
	"github.com/graphql-go/graphql"
)

var (
	// Scalar types
	bytesType   = graphql.String
	bigIntType  = graphql.String
	addressType = graphql.String
	hashType    = graphql.String
)

// connectionArgs are the Relay pagination arguments shared by every connection field
func connectionArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"first": &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
		"after": &graphql.ArgumentConfig{
			Type: graphql.String,
		},
		"last": &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
		"before": &graphql.ArgumentConfig{
			Type: graphql.String,
		},
		"count": &graphql.ArgumentConfig{
			Type:        graphql.Int,
			Description: "Page size hint, ignored when before is given",
		},
	}
}

// pageArgs are the offset pagination arguments
func pageArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"pageNumber": &graphql.ArgumentConfig{
			Type:         graphql.Int,
			DefaultValue: 1,
		},
		"pageSize": &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
	}
}

// objects holds the object types of one schema. Address and Transaction carry
// nested connections whose resolvers need the schema, so types are built per schema.
type objects struct {
	pageInfo                      *graphql.Object
	block                         *graphql.Object
	transaction                   *graphql.Object
	internalTransaction           *graphql.Object
	tokenTransfer                 *graphql.Object
	address                       *graphql.Object
	transactionConnection         *graphql.Object
	internalTransactionConnection *graphql.Object
	tokenTransferConnection       *graphql.Object
}

func (s *Schema) buildObjects() *objects {
	o := &objects{}

	o.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"hasPreviousPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"startCursor": &graphql.Field{
				Type: graphql.String,
			},
			"endCursor": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	o.block = graphql.NewObject(graphql.ObjectConfig{
		Name: "Block",
		Fields: graphql.Fields{
			"number": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"hash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"parentHash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"timestamp": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"miner": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"gasLimit": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"gasUsed": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"size": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"consensus": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
		},
	})

	o.internalTransaction = graphql.NewObject(graphql.ObjectConfig{
		Name: "InternalTransaction",
		Fields: graphql.Fields{
			"transactionHash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"index": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"blockNumber": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"blockHash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"type": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"callType": &graphql.Field{
				Type: graphql.String,
			},
			"from": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"to": &graphql.Field{
				Type: addressType,
			},
			"createdContractAddress": &graphql.Field{
				Type: addressType,
			},
			"value": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"gas": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"gasUsed": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"input": &graphql.Field{
				Type: bytesType,
			},
			"output": &graphql.Field{
				Type: bytesType,
			},
			"error": &graphql.Field{
				Type: graphql.String,
			},
			"traceAddress": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Int))),
			},
		},
	})

	o.internalTransactionConnection = connectionType("InternalTransaction", o.internalTransaction, o.pageInfo)

	o.transaction = graphql.NewObject(graphql.ObjectConfig{
		Name: "Transaction",
		Fields: graphql.Fields{
			"hash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"blockNumber": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"blockHash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"index": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"from": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"to": &graphql.Field{
				Type: addressType,
			},
			"createdContractAddress": &graphql.Field{
				Type: addressType,
			},
			"value": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"gas": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"gasPrice": &graphql.Field{
				Type: bigIntType,
			},
			"gasUsed": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"nonce": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"input": &graphql.Field{
				Type: graphql.NewNonNull(bytesType),
			},
			"status": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"insertedAt": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.DateTime),
				Description: "Time the transaction was indexed",
			},
			"internalTransactions": &graphql.Field{
				Type:    graphql.NewNonNull(o.internalTransactionConnection),
				Args:    connectionArgs(),
				Resolve: s.resolveTransactionInternalTransactions,
			},
		},
	})

	o.transactionConnection = connectionType("Transaction", o.transaction, o.pageInfo)

	o.tokenTransfer = graphql.NewObject(graphql.ObjectConfig{
		Name: "TokenTransfer",
		Fields: graphql.Fields{
			"transactionHash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"logIndex": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"blockNumber": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"blockHash": &graphql.Field{
				Type: graphql.NewNonNull(hashType),
			},
			"from": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"to": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"tokenContractAddress": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"amount": &graphql.Field{
				Type: bigIntType,
			},
			"tokenId": &graphql.Field{
				Type: bigIntType,
			},
		},
	})

	o.tokenTransferConnection = connectionType("TokenTransfer", o.tokenTransfer, o.pageInfo)

	o.address = graphql.NewObject(graphql.ObjectConfig{
		Name: "Address",
		Fields: graphql.Fields{
			"hash": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
			},
			"fetchedCoinBalance": &graphql.Field{
				Type: bigIntType,
			},
			"fetchedCoinBalanceBlockNumber": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"contractCode": &graphql.Field{
				Type: bytesType,
			},
			"nonce": &graphql.Field{
				Type: graphql.NewNonNull(bigIntType),
			},
			"isContract": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"transactions": &graphql.Field{
				Type:    graphql.NewNonNull(o.transactionConnection),
				Args:    connectionArgs(),
				Resolve: s.resolveAddressTransactions,
			},
		},
	})

	return o
}

// connectionType builds <name>Connection and <name>Edge
func connectionType(name string, node, pageInfo *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Edge",
		Fields: graphql.Fields{
			"cursor": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"node": &graphql.Field{
				Type: graphql.NewNonNull(node),
			},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Connection",
		Fields: graphql.Fields{
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edge))),
			},
			"pageInfo": &graphql.Field{
				Type: graphql.NewNonNull(pageInfo),
			},
		},
	})
}
