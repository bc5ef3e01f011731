package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold marks queries slower than this as slow
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// DBMetrics is a GORM plugin recording query counts and latency plus
// connection pool gauges read on every collection
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	slowThreshold  time.Duration
	logger         *zap.Logger
}

// NewDBMetrics creates the query instruments and registers pool gauges for sqlDB
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, slowThreshold time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowQueryThreshold
	}

	queryTotal, err := NewCounter(meter, "db_query_total", "Database queries by operation", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Buckets:     DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	slowQueryTotal, err := NewCounter(meter, "db_slow_query_total", "Queries slower than the slow threshold", "{query}")
	if err != nil {
		return nil, err
	}

	if sqlDB != nil {
		if err := registerPoolGauges(meter, sqlDB); err != nil {
			return nil, err
		}
	}

	return &DBMetrics{
		queryTotal:     queryTotal,
		queryDuration:  queryDuration,
		slowQueryTotal: slowQueryTotal,
		slowThreshold:  slowThreshold,
		logger:         logger,
	}, nil
}

func registerPoolGauges(meter metric.Meter, sqlDB *sql.DB) error {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("create pool gauge: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("create pool gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		return nil
	}, connections, maxOpen)
	return err
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "fulfillment:db_metrics"
}

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerTimedCallbacks(db, "db_metrics", m.record)
}

func (m *DBMetrics) record(tx *gorm.DB, operation string, elapsed time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(tx.Statement.Table)}
	status := "ok"
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		status = "error"
	}

	m.queryTotal.Inc(ctx, append(attrs, AttrStatus.String(status))...)
	m.queryDuration.RecordDuration(ctx, elapsed, attrs...)
	if elapsed > m.slowThreshold {
		m.slowQueryTotal.Inc(ctx, attrs...)
	}
}

// RegisterDBMetrics installs the metrics plugin on db
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, slowThreshold time.Duration, logger *zap.Logger) error {
	if mp == nil || !mp.IsEnabled() {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	metrics, err := NewDBMetrics(mp.Meter("db.client"), sqlDB, slowThreshold, logger)
	if err != nil {
		return err
	}
	if err := db.Use(metrics); err != nil {
		return fmt.Errorf("register db metrics: %w", err)
	}
	logger.Info("database metrics registered", zap.Duration("slow_query_threshold", metrics.slowThreshold))
	return nil
}
