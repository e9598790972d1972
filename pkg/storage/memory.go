package storage

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

type memoryRow struct {
	pk     []byte
	record types.Record
}

// MemoryStore keeps every table in process memory, sorted by primary key
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]memoryRow
	closed atomic.Bool
	logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		tables: make(map[string][]memoryRow),
		logger: logger,
	}
}

func newMemoryStore(_ *BackendConfig, logger *zap.Logger) (Executor, error) {
	return NewMemoryStore(logger), nil
}

// Type returns the backend type
func (m *MemoryStore) Type() BackendType {
	return BackendTypeMemory
}

// Select implements Executor
func (m *MemoryStore) Select(ctx context.Context, d query.Descriptor) ([]types.Record, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return evaluator{src: m}.Select(ctx, d)
}

// Aggregate implements Executor
func (m *MemoryStore) Aggregate(ctx context.Context, a query.Aggregate) ([]uint64, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return evaluator{src: m}.Aggregate(ctx, a)
}

// Scan implements Source. It iterates a snapshot, so fn may scan again.
func (m *MemoryStore) Scan(ctx context.Context, table string, fn func(types.Record) error) error {
	if _, err := newRecord(table); err != nil {
		return err
	}

	m.mu.RLock()
	rows := m.tables[table]
	m.mu.RUnlock()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row.record); err != nil {
			return err
		}
	}
	return nil
}

// Put implements Writer. Either every record is stored or none is.
func (m *MemoryStore) Put(_ context.Context, records ...types.Record) error {
	if m.closed.Load() {
		return ErrClosed
	}
	pks, err := primaryKeys(records)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for n, r := range records {
		pk := pks[n]
		rows := m.tables[r.Table()]
		i := sort.Search(len(rows), func(i int) bool { return bytes.Compare(rows[i].pk, pk) >= 0 })

		// copy-on-write keeps snapshots handed to Scan stable
		next := make([]memoryRow, 0, len(rows)+1)
		next = append(next, rows[:i]...)
		next = append(next, memoryRow{pk: pk, record: r})
		if i < len(rows) && bytes.Equal(rows[i].pk, pk) {
			next = append(next, rows[i+1:]...)
		} else {
			next = append(next, rows[i:]...)
		}
		m.tables[r.Table()] = next
	}
	m.logger.Debug("stored records", zap.Int("count", len(records)))
	return nil
}

// Delete implements Writer. Either every record is removed or none is.
func (m *MemoryStore) Delete(_ context.Context, records ...types.Record) error {
	if m.closed.Load() {
		return ErrClosed
	}
	pks, err := primaryKeys(records)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for n, r := range records {
		pk := pks[n]
		rows := m.tables[r.Table()]
		i := sort.Search(len(rows), func(i int) bool { return bytes.Compare(rows[i].pk, pk) >= 0 })
		if i == len(rows) || !bytes.Equal(rows[i].pk, pk) {
			continue
		}
		next := make([]memoryRow, 0, len(rows)-1)
		next = append(next, rows[:i]...)
		next = append(next, rows[i+1:]...)
		m.tables[r.Table()] = next
	}
	return nil
}

func primaryKeys(records []types.Record) ([][]byte, error) {
	pks := make([][]byte, len(records))
	for i, r := range records {
		pk, err := PrimaryKey(r)
		if err != nil {
			return nil, err
		}
		pks[i] = pk
	}
	return pks, nil
}

// Ping implements Pinger
func (m *MemoryStore) Ping(_ context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close implements Executor
func (m *MemoryStore) Close() error {
	m.closed.Store(true)
	return nil
}
