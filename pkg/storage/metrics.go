package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/pkg/query"
	"github.com/0xmhha/ledger-query/pkg/types"
)

// Metrics holds the Prometheus metrics of storage queries
type Metrics struct {
	// Counters (cumulative values)
	QueriesTotal *prometheus.CounterVec

	// Histograms (distributions)
	QueryDuration *prometheus.HistogramVec
	RowsReturned  *prometheus.HistogramVec
}

// NewMetrics creates storage metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	if namespace == "" {
		namespace = "ledger_query"
	}
	if subsystem == "" {
		subsystem = "storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queries_total",
			Help:      "Total number of storage queries by collection and outcome",
		}, []string{"collection", "backend", "status"}),

		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "query_duration_seconds",
			Help:      "Time spent executing storage queries",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"collection", "backend"}),

		RowsReturned: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rows_returned",
			Help:      "Number of rows returned per storage query",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 101, 250},
		}, []string{"collection"}),
	}
}

// Ensure InstrumentedExecutor implements Executor
var _ Executor = (*InstrumentedExecutor)(nil)

// InstrumentedExecutor records metrics and debug logs around another Executor
type InstrumentedExecutor struct {
	next    Executor
	metrics *Metrics
	logger  *zap.Logger
}

// NewInstrumentedExecutor wraps next
func NewInstrumentedExecutor(next Executor, metrics *Metrics, logger *zap.Logger) *InstrumentedExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedExecutor{
		next:    next,
		metrics: metrics,
		logger:  logger,
	}
}

// Select implements Executor
func (e *InstrumentedExecutor) Select(ctx context.Context, d query.Descriptor) ([]types.Record, error) {
	start := time.Now()
	rows, err := e.next.Select(ctx, d)
	elapsed := time.Since(start)

	e.observe(d.Collection, elapsed, err)
	if e.metrics != nil && err == nil {
		e.metrics.RowsReturned.WithLabelValues(d.Collection).Observe(float64(len(rows)))
	}

	e.logger.Debug("select",
		zap.String("collection", d.Collection),
		zap.String("table", d.Table),
		zap.Int("limit", d.Limit),
		zap.Int("offset", d.Offset),
		zap.Bool("seek", d.Seek != nil),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	)
	return rows, err
}

// Aggregate implements Executor
func (e *InstrumentedExecutor) Aggregate(ctx context.Context, a query.Aggregate) ([]uint64, error) {
	start := time.Now()
	out, err := e.next.Aggregate(ctx, a)
	elapsed := time.Since(start)

	e.observe(a.Name, elapsed, err)
	e.logger.Debug("aggregate",
		zap.String("name", a.Name),
		zap.String("table", a.Table),
		zap.Int("rows", len(out)),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	)
	return out, err
}

// Close implements Executor
func (e *InstrumentedExecutor) Close() error {
	return e.next.Close()
}

// Type implements Executor
func (e *InstrumentedExecutor) Type() BackendType {
	return e.next.Type()
}

// Unwrap returns the wrapped executor
func (e *InstrumentedExecutor) Unwrap() Executor {
	return e.next
}

func (e *InstrumentedExecutor) observe(collection string, elapsed time.Duration, err error) {
	if e.metrics == nil {
		return
	}
	backend := string(e.next.Type())
	e.metrics.QueriesTotal.WithLabelValues(collection, backend, queryStatus(err)).Inc()
	e.metrics.QueryDuration.WithLabelValues(collection, backend).Observe(elapsed.Seconds())
}

func queryStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
