package storage

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/constants"
	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Ensure PostgresStore implements Executor
var _ Executor = (*PostgresStore)(nil)

// PostgresStore runs descriptors as SQL against a relational ledger schema.
// It is read-only: the tables are populated by the indexer.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewPostgresStore connects a pgx pool
func NewPostgresStore(ctx context.Context, config *BackendConfig, logger *zap.Logger) (*PostgresStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("postgres connection string cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection string: %w", err)
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	poolConfig.MaxConnLifetime = constants.DefaultConnMaxLifetime
	poolConfig.MaxConnIdleTime = constants.DefaultConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("connected to postgres",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)

	return &PostgresStore{
		pool:    pool,
		timeout: config.QueryTimeout,
		logger:  logger,
	}, nil
}

func newPostgresStore(config *BackendConfig, logger *zap.Logger) (Executor, error) {
	ctx := context.Background()
	if config != nil && config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.QueryTimeout)
		defer cancel()
	}
	return NewPostgresStore(ctx, config, logger)
}

// Type returns the backend type
func (s *PostgresStore) Type() BackendType {
	return BackendTypePostgres
}

// Select implements Executor
func (s *PostgresStore) Select(ctx context.Context, d query.Descriptor) ([]types.Record, error) {
	sql, args, err := SelectSQL(d)
	if err != nil {
		return nil, err
	}
	scan, err := scannerFor(d.Table)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, wrapError(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

// Aggregate implements Executor
func (s *PostgresStore) Aggregate(ctx context.Context, a query.Aggregate) ([]uint64, error) {
	sql, args, err := AggregateSQL(a)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	out := []uint64{}
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, wrapError(err)
		}
		out = append(out, uint64(n))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

// Ping implements Pinger
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return wrapError(err)
	}
	return nil
}

// Close implements Executor
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// wrapError maps driver errors onto storage errors
func wrapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	return fmt.Errorf("postgres: %w", err)
}

type rowScanner func(rows pgx.Rows) (types.Record, error)

func scannerFor(table string) (rowScanner, error) {
	switch table {
	case types.TableBlocks:
		return scanBlock, nil
	case types.TableTransactions:
		return scanTransaction, nil
	case types.TableInternalTransactions:
		return scanInternalTransaction, nil
	case types.TableTokenTransfers:
		return scanTokenTransfer, nil
	case types.TableAddresses:
		return scanAddress, nil
	case types.TablePendingBlockOperations:
		return scanPendingBlockOperation, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
}

func scanBlock(rows pgx.Rows) (types.Record, error) {
	var (
		b                         types.Block
		hash, parent, miner       []byte
		number, used, limit, size int64
	)
	if err := rows.Scan(&hash, &parent, &number, &b.Timestamp, &miner, &used, &limit, &size, &b.Consensus); err != nil {
		return nil, err
	}
	b.Hash = common.BytesToHash(hash)
	b.ParentHash = common.BytesToHash(parent)
	b.MinerHash = common.BytesToAddress(miner)
	b.Number = uint64(number)
	b.GasUsed = uint64(used)
	b.GasLimit = uint64(limit)
	b.Size = uint64(size)
	b.Timestamp = b.Timestamp.UTC()
	return &b, nil
}

func scanTransaction(rows pgx.Rows) (types.Record, error) {
	var (
		tx                                   types.Transaction
		hash, blockHash, from, to, created   []byte
		blockNumber, index, gas, used, nonce int64
		status                               int64
		input                                []byte
		value, gasPrice                      pgtype.Numeric
	)
	if err := rows.Scan(&hash, &blockNumber, &blockHash, &index, &from, &to, &created,
		&value, &gas, &gasPrice, &used, &nonce, &input, &status, &tx.InsertedAt); err != nil {
		return nil, err
	}
	tx.Hash = common.BytesToHash(hash)
	tx.BlockNumber = uint64(blockNumber)
	tx.BlockHash = common.BytesToHash(blockHash)
	tx.Index = uint64(index)
	tx.FromAddressHash = common.BytesToAddress(from)
	tx.ToAddressHash = nullableAddress(to)
	tx.CreatedContractAddressHash = nullableAddress(created)
	tx.Gas = uint64(gas)
	tx.GasUsed = uint64(used)
	tx.Nonce = uint64(nonce)
	tx.Status = uint64(status)
	tx.Input = input
	tx.InsertedAt = tx.InsertedAt.UTC()

	var err error
	if tx.Value, err = numericToBig(value); err != nil {
		return nil, err
	}
	if tx.GasPrice, err = numericToBig(gasPrice); err != nil {
		return nil, err
	}
	return &tx, nil
}

func scanInternalTransaction(rows pgx.Rows) (types.Record, error) {
	var (
		it                                   types.InternalTransaction
		txHash, blockHash, from, to, created []byte
		index, blockNumber, gas, used        int64
		callType, callError                  *string
		value                                pgtype.Numeric
		traceAddress                         []int64
		input, output                        []byte
	)
	if err := rows.Scan(&txHash, &index, &blockNumber, &blockHash, &it.Type, &callType,
		&from, &to, &created, &value, &gas, &used, &input, &output, &callError, &traceAddress); err != nil {
		return nil, err
	}
	it.TransactionHash = common.BytesToHash(txHash)
	it.Index = uint64(index)
	it.BlockNumber = uint64(blockNumber)
	it.BlockHash = common.BytesToHash(blockHash)
	it.FromAddressHash = common.BytesToAddress(from)
	it.ToAddressHash = nullableAddress(to)
	it.CreatedContractAddressHash = nullableAddress(created)
	it.Gas = uint64(gas)
	it.GasUsed = uint64(used)
	it.Input = input
	it.Output = output
	if callType != nil {
		it.CallType = *callType
	}
	if callError != nil {
		it.Error = *callError
	}
	it.TraceAddress = make([]uint64, len(traceAddress))
	for i, v := range traceAddress {
		it.TraceAddress[i] = uint64(v)
	}

	var err error
	if it.Value, err = numericToBig(value); err != nil {
		return nil, err
	}
	return &it, nil
}

func scanTokenTransfer(rows pgx.Rows) (types.Record, error) {
	var (
		tt                                    types.TokenTransfer
		txHash, blockHash, from, to, contract []byte
		logIndex, blockNumber                 int64
		amount, tokenID                       pgtype.Numeric
	)
	if err := rows.Scan(&txHash, &logIndex, &blockNumber, &blockHash, &from, &to, &contract, &amount, &tokenID); err != nil {
		return nil, err
	}
	tt.TransactionHash = common.BytesToHash(txHash)
	tt.LogIndex = uint64(logIndex)
	tt.BlockNumber = uint64(blockNumber)
	tt.BlockHash = common.BytesToHash(blockHash)
	tt.FromAddressHash = common.BytesToAddress(from)
	tt.ToAddressHash = common.BytesToAddress(to)
	tt.TokenContractAddressHash = common.BytesToAddress(contract)

	var err error
	if tt.Amount, err = numericToBig(amount); err != nil {
		return nil, err
	}
	if tt.TokenID, err = numericToBig(tokenID); err != nil {
		return nil, err
	}
	return &tt, nil
}

func scanAddress(rows pgx.Rows) (types.Record, error) {
	var (
		a            types.Address
		hash, code   []byte
		balance      pgtype.Numeric
		balanceBlock *int64
		nonce        *int64
	)
	if err := rows.Scan(&hash, &balance, &balanceBlock, &code, &nonce); err != nil {
		return nil, err
	}
	a.Hash = common.BytesToAddress(hash)
	a.ContractCode = code
	if balanceBlock != nil {
		a.FetchedCoinBalanceBlockNumber = uint64(*balanceBlock)
	}
	if nonce != nil {
		a.Nonce = uint64(*nonce)
	}

	var err error
	if a.FetchedCoinBalance, err = numericToBig(balance); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanPendingBlockOperation(rows pgx.Rows) (types.Record, error) {
	var hash []byte
	if err := rows.Scan(&hash); err != nil {
		return nil, err
	}
	return &types.PendingBlockOperation{BlockHash: common.BytesToHash(hash)}, nil
}

func nullableAddress(b []byte) *common.Address {
	if b == nil {
		return nil
	}
	addr := common.BytesToAddress(b)
	return &addr
}

// numericToBig converts an integral NUMERIC to *big.Int; NULL becomes nil
func numericToBig(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("%w: non-finite numeric", ErrInvalidData)
	}
	v := new(big.Int).Set(n.Int)
	if n.Exp == 0 {
		return v, nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
	if n.Exp > 0 {
		return v.Mul(v, scale), nil
	}
	q, r := new(big.Int).QuoRem(v, scale, new(big.Int))
	if r.Sign() != 0 {
		return nil, fmt.Errorf("%w: fractional numeric", ErrInvalidData)
	}
	return q, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
