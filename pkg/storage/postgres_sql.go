package storage

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// tableColumns is the Postgres column list of each table, in scan order
var tableColumns = map[string][]string{
	types.TableBlocks: {
		"hash", "parent_hash", "number", "timestamp", "miner_hash",
		"gas_used", "gas_limit", "size", "consensus",
	},
	types.TableTransactions: {
		"hash", "block_number", "block_hash", "index", "from_address_hash",
		"to_address_hash", "created_contract_address_hash", "value", "gas",
		"gas_price", "gas_used", "nonce", "input", "status", "inserted_at",
	},
	types.TableInternalTransactions: {
		"transaction_hash", "index", "block_number", "block_hash", "type", "call_type",
		"from_address_hash", "to_address_hash", "created_contract_address_hash",
		"value", "gas", "gas_used", "input", "output", "error", "trace_address",
	},
	types.TableTokenTransfers: {
		"transaction_hash", "log_index", "block_number", "block_hash", "from_address_hash",
		"to_address_hash", "token_contract_address_hash", "amount", "token_id",
	},
	types.TableAddresses: {
		"hash", "fetched_coin_balance", "fetched_coin_balance_block_number",
		"contract_code", "nonce",
	},
	types.TablePendingBlockOperations: {
		"block_hash",
	},
}

// sqlBuilder renders descriptors to parameterized SQL. Identifiers come only from
// tableColumns and are quoted; every value is bound as a $n argument.
type sqlBuilder struct {
	args    []any
	aliases int
}

// SelectSQL renders d as a SELECT statement
func SelectSQL(d query.Descriptor) (string, []any, error) {
	b := &sqlBuilder{}
	columns, err := columnsOf(d.Table)
	if err != nil {
		return "", nil, err
	}
	alias := b.nextAlias()

	selected := make([]string, len(columns))
	for i, c := range columns {
		selected[i] = ident(alias, c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s AS %s",
		strings.Join(selected, ", "), pgx.Identifier{d.Table}.Sanitize(), pgx.Identifier{alias}.Sanitize())

	var conds []string
	if d.Where != nil {
		cond, err := b.predicate(d.Where, d.Table, alias)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
	}
	if d.Seek != nil {
		cond, err := b.seek(d, alias)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(d.OrderBy) > 0 {
		orders := make([]string, len(d.OrderBy))
		for i, o := range d.OrderBy {
			if err := checkColumn(d.Table, o.Column); err != nil {
				return "", nil, err
			}
			orders[i] = ident(alias, o.Column) + " " + o.Direction.String()
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	if d.Limit > 0 {
		p, err := b.bind(uint64(d.Limit))
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" LIMIT " + p)
	}
	if d.Offset > 0 {
		p, err := b.bind(uint64(d.Offset))
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" OFFSET " + p)
	}

	return sb.String(), b.args, nil
}

// AggregateSQL renders a as a single-column aggregate. HAVING keeps an empty
// input from producing a row.
func AggregateSQL(a query.Aggregate) (string, []any, error) {
	if a.Func != query.Count {
		return "", nil, fmt.Errorf("%w: aggregate function %d", ErrUnsupportedPredicate, a.Func)
	}
	if _, err := columnsOf(a.Table); err != nil {
		return "", nil, err
	}

	b := &sqlBuilder{}
	alias := b.nextAlias()

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT COUNT(*) FROM %s AS %s",
		pgx.Identifier{a.Table}.Sanitize(), pgx.Identifier{alias}.Sanitize())
	if a.Where != nil {
		cond, err := b.predicate(a.Where, a.Table, alias)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE " + cond)
	}
	sb.WriteString(" HAVING COUNT(*) > 0")
	return sb.String(), b.args, nil
}

func (b *sqlBuilder) nextAlias() string {
	alias := fmt.Sprintf("t%d", b.aliases)
	b.aliases++
	return alias
}

func (b *sqlBuilder) bind(v any) (string, error) {
	arg, err := pgArg(v)
	if err != nil {
		return "", err
	}
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args)), nil
}

func (b *sqlBuilder) predicate(p query.Predicate, table, alias string) (string, error) {
	switch p := p.(type) {
	case query.Eq:
		return b.comparison(table, alias, p.Column, "=", p.Value)
	case query.Ne:
		return b.comparison(table, alias, p.Column, "<>", p.Value)
	case query.Gt:
		return b.comparison(table, alias, p.Column, ">", p.Value)
	case query.IsNull:
		if err := checkColumn(table, p.Column); err != nil {
			return "", err
		}
		return ident(alias, p.Column) + " IS NULL", nil
	case query.And:
		return b.junction(p, "AND", "TRUE", table, alias)
	case query.Or:
		return b.junction(p, "OR", "FALSE", table, alias)
	case query.Not:
		inner, err := b.predicate(p.Predicate, table, alias)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case query.Exists:
		return b.exists(p, table, alias)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedPredicate, p)
}

func (b *sqlBuilder) comparison(table, alias, column, op string, value any) (string, error) {
	if err := checkColumn(table, column); err != nil {
		return "", err
	}
	p, err := b.bind(value)
	if err != nil {
		return "", err
	}
	return ident(alias, column) + " " + op + " " + p, nil
}

func (b *sqlBuilder) junction(parts []query.Predicate, op, empty, table, alias string) (string, error) {
	if len(parts) == 0 {
		return empty, nil
	}
	rendered := make([]string, len(parts))
	for i, part := range parts {
		s, err := b.predicate(part, table, alias)
		if err != nil {
			return "", err
		}
		rendered[i] = s
	}
	if len(rendered) == 1 {
		return rendered[0], nil
	}
	return "(" + strings.Join(rendered, " "+op+" ") + ")", nil
}

func (b *sqlBuilder) exists(p query.Exists, outerTable, outerAlias string) (string, error) {
	if _, err := columnsOf(p.Table); err != nil {
		return "", err
	}
	alias := b.nextAlias()

	var conds []string
	for _, c := range p.On {
		if err := checkColumn(p.Table, c.Inner); err != nil {
			return "", err
		}
		if err := checkColumn(outerTable, c.Outer); err != nil {
			return "", err
		}
		op := "="
		if c.Op == query.OpNe {
			op = "<>"
		}
		conds = append(conds, ident(alias, c.Inner)+" "+op+" "+ident(outerAlias, c.Outer))
	}
	if p.Where != nil {
		cond, err := b.predicate(p.Where, p.Table, alias)
		if err != nil {
			return "", err
		}
		conds = append(conds, cond)
	}

	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s",
		pgx.Identifier{p.Table}.Sanitize(), pgx.Identifier{alias}.Sanitize())
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	return sql + ")", nil
}

// seek renders "strictly after d.Seek in d.OrderBy" as
// (c1 > $1) OR (c1 = $1 AND c2 > $2) OR ..., with < for descending columns.
func (b *sqlBuilder) seek(d query.Descriptor, alias string) (string, error) {
	if len(d.Seek) != len(d.OrderBy) || len(d.OrderBy) == 0 {
		return "", fmt.Errorf("seek key has %d values for %d order columns", len(d.Seek), len(d.OrderBy))
	}

	placeholders := make([]string, len(d.Seek))
	for i, v := range d.Seek {
		p, err := b.bind(v)
		if err != nil {
			return "", err
		}
		placeholders[i] = p
	}

	branches := make([]string, len(d.OrderBy))
	for i, o := range d.OrderBy {
		if err := checkColumn(d.Table, o.Column); err != nil {
			return "", err
		}
		terms := make([]string, 0, i+1)
		for j := 0; j < i; j++ {
			terms = append(terms, ident(alias, d.OrderBy[j].Column)+" = "+placeholders[j])
		}
		op := ">"
		if o.Direction == query.Desc {
			op = "<"
		}
		terms = append(terms, ident(alias, o.Column)+" "+op+" "+placeholders[i])
		branches[i] = "(" + strings.Join(terms, " AND ") + ")"
	}
	return "(" + strings.Join(branches, " OR ") + ")", nil
}

func columnsOf(table string) ([]string, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return columns, nil
}

func checkColumn(table, column string) error {
	columns, err := columnsOf(table)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown column %s.%s", ErrUnsupportedPredicate, table, column)
}

func ident(alias, column string) string {
	return pgx.Identifier{alias, column}.Sanitize()
}

// pgArg converts a column value to its pgx argument form
func pgArg(v any) (any, error) {
	switch v := v.(type) {
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: integer %d exceeds bigint", ErrUnsupportedPredicate, v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case common.Hash:
		return v.Bytes(), nil
	case common.Address:
		return v.Bytes(), nil
	case *big.Int:
		if v == nil {
			return nil, nil
		}
		return pgtype.Numeric{Int: new(big.Int).Set(v), Exp: 0, Valid: true}, nil
	case time.Time:
		return v.UTC(), nil
	case bool, string:
		return v, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: value of type %T", ErrUnsupportedPredicate, v)
}
