package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

func TestGlobalBackendRegistry(t *testing.T) {
	assert.Equal(t, []BackendType{BackendTypeMemory, BackendTypePebble, BackendTypePostgres}, SupportedBackends())
	assert.True(t, HasBackend(BackendTypePostgres))
	assert.False(t, HasBackend("rocksdb"))

	meta, ok := GlobalBackendRegistry().GetMetadata(BackendTypePebble)
	require.True(t, ok)
	assert.Contains(t, meta.Features, "readonly")
}

func TestCreateBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		exec, err := CreateBackend(DefaultBackendConfig(BackendTypeMemory, ""), nil)
		require.NoError(t, err)
		defer exec.Close()

		assert.Equal(t, BackendTypeMemory, exec.Type())
		_, ok := exec.(Writer)
		assert.True(t, ok, "memory backend accepts fixtures")
	})

	t.Run("pebble", func(t *testing.T) {
		cfg := DefaultBackendConfig(BackendTypePebble, t.TempDir())
		cfg.Cache = 8
		exec, err := CreateBackend(cfg, zap.NewNop())
		require.NoError(t, err)
		defer exec.Close()

		assert.Equal(t, BackendTypePebble, exec.Type())
	})

	t.Run("postgres without connection string", func(t *testing.T) {
		_, err := CreateBackend(DefaultBackendConfig(BackendTypePostgres, ""), nil)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := CreateBackend(&BackendConfig{Type: "rocksdb"}, nil)
		assert.ErrorContains(t, err, "unknown backend type")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := CreateBackend(nil, nil)
		assert.Error(t, err)
	})
}

func TestBackendRegistry_DuplicateRegistration(t *testing.T) {
	r := NewBackendRegistry()
	require.NoError(t, r.Register(BackendTypeMemory, newMemoryStore, nil))

	err := r.Register(BackendTypeMemory, newMemoryStore, nil)
	assert.ErrorContains(t, err, "already registered")

	assert.Panics(t, func() {
		r.MustRegister(BackendTypeMemory, newMemoryStore, nil)
	})
}

type failingExecutor struct {
	Executor
	err error
}

func (f failingExecutor) Select(context.Context, query.Descriptor) ([]types.Record, error) {
	return nil, f.err
}

func TestInstrumentedExecutor(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "", "")

	store := setupMemoryStore(t)
	exec := NewInstrumentedExecutor(store, metrics, nil)

	d := query.TransactionsForAddress(addrA)
	rows, err := exec.Select(context.Background(), d)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = exec.Aggregate(context.Background(), query.TotalTransactionCount())
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.QueriesTotal.WithLabelValues(d.Collection, "memory", "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("total_transaction_count", "memory", "ok")))

	failing := NewInstrumentedExecutor(failingExecutor{Executor: store, err: context.DeadlineExceeded}, metrics, nil)
	_, err = failing.Select(context.Background(), d)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.QueriesTotal.WithLabelValues(d.Collection, "memory", "timeout")))

	assert.Equal(t, BackendTypeMemory, exec.Type())
	assert.Same(t, store, exec.Unwrap())
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	exec := NewInstrumentedExecutor(store, nil, nil)

	assert.NoError(t, Ping(ctx, exec))

	require.NoError(t, store.Close())
	assert.ErrorIs(t, Ping(ctx, exec), ErrClosed)

	assert.NoError(t, Ping(ctx, failingExecutor{Executor: store}), "executors without a liveness check are healthy")
}
