package storage

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Ensure PebbleStore implements Store
var _ Store = (*PebbleStore)(nil)

// PebbleStore keeps JSON-encoded records under /data/<table>/<primary key>
// and evaluates descriptors by scanning table prefixes.
type PebbleStore struct {
	db       *pebble.DB
	readOnly bool
	logger   *zap.Logger
	closed   atomic.Bool
}

// NewPebbleStore opens a PebbleDB store
func NewPebbleStore(config *BackendConfig, logger *zap.Logger) (*PebbleStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Path == "" {
		return nil, fmt.Errorf("pebble path cannot be empty")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	// Configure PebbleDB options
	opts := &pebble.Options{
		Cache:                    pebble.NewCache(int64(config.Cache) << 20), // Convert MB to bytes
		MaxOpenFiles:             config.MaxOpenFiles,
		MemTableSize:             uint64(config.WriteBuffer) << 20,
		MaxConcurrentCompactions: func() int { return 1 },
		ErrorIfExists:            false,
		ErrorIfNotExists:         false,
	}

	if config.ReadOnly {
		opts.ReadOnly = true
	}

	// Open database
	db, err := pebble.Open(config.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}

	logger.Info("opened pebble store",
		zap.String("path", config.Path),
		zap.Bool("readonly", config.ReadOnly),
	)

	return &PebbleStore{
		db:       db,
		readOnly: config.ReadOnly,
		logger:   logger,
	}, nil
}

func newPebbleStore(config *BackendConfig, logger *zap.Logger) (Executor, error) {
	return NewPebbleStore(config, logger)
}

// Type returns the backend type
func (s *PebbleStore) Type() BackendType {
	return BackendTypePebble
}

// ensureNotClosed checks if storage is closed
func (s *PebbleStore) ensureNotClosed() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// ensureWritable checks if storage accepts writes
func (s *PebbleStore) ensureWritable() error {
	if err := s.ensureNotClosed(); err != nil {
		return err
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

// Select implements Executor
func (s *PebbleStore) Select(ctx context.Context, d query.Descriptor) ([]types.Record, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}
	return evaluator{src: s}.Select(ctx, d)
}

// Aggregate implements Executor
func (s *PebbleStore) Aggregate(ctx context.Context, a query.Aggregate) ([]uint64, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}
	return evaluator{src: s}.Aggregate(ctx, a)
}

// Scan implements Source
func (s *PebbleStore) Scan(ctx context.Context, table string, fn func(types.Record) error) error {
	if _, err := newRecord(table); err != nil {
		return err
	}

	prefix := TablePrefix(table)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := DecodeRecord(table, iter.Value())
		if err != nil {
			return fmt.Errorf("key %q: %w", iter.Key(), err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}
	return nil
}

// Get returns the record of table stored under primary key pk
func (s *PebbleStore) Get(table string, pk []byte) (types.Record, error) {
	if err := s.ensureNotClosed(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(append(TablePrefix(table), pk...))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s record: %w", table, err)
	}
	defer closer.Close()

	return DecodeRecord(table, value)
}

// Put implements Writer. All records are committed in one batch.
func (s *PebbleStore) Put(_ context.Context, records ...types.Record) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, r := range records {
		key, err := RecordKey(r)
		if err != nil {
			return err
		}
		data, err := EncodeRecord(r)
		if err != nil {
			return err
		}
		if err := batch.Set(key, data, nil); err != nil {
			return fmt.Errorf("failed to stage %s record: %w", r.Table(), err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.logger.Debug("stored records", zap.Int("count", len(records)))
	return nil
}

// Delete implements Writer
func (s *PebbleStore) Delete(_ context.Context, records ...types.Record) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, r := range records {
		key, err := RecordKey(r)
		if err != nil {
			return err
		}
		if err := batch.Delete(key, nil); err != nil {
			return fmt.Errorf("failed to stage delete: %w", err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Ping implements Pinger
func (s *PebbleStore) Ping(_ context.Context) error {
	return s.ensureNotClosed()
}

// Close closes the storage and releases resources
func (s *PebbleStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key with prefix
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
