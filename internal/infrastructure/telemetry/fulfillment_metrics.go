package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FulfillmentMetrics counts committed order transitions and received returns
type FulfillmentMetrics struct {
	transitions     *Counter
	unitsMoved      *Counter
	returnsReceived *Counter
	unitsReturned   *Counter
}

// NewFulfillmentMetrics creates the fulfillment instruments
func NewFulfillmentMetrics(meter metric.Meter) (*FulfillmentMetrics, error) {
	transitions, err := NewCounter(meter, "fulfillment_transitions_total", "Committed order transitions", "{transition}")
	if err != nil {
		return nil, err
	}
	unitsMoved, err := NewCounter(meter, "fulfillment_units_moved_total", "Units moved by ledger-affecting transitions", "{unit}")
	if err != nil {
		return nil, err
	}
	returnsReceived, err := NewCounter(meter, "fulfillment_returns_received_total", "Expected-return entries received", "{return}")
	if err != nil {
		return nil, err
	}
	unitsReturned, err := NewCounter(meter, "fulfillment_units_returned_total", "Units put back on hand by received returns", "{unit}")
	if err != nil {
		return nil, err
	}
	return &FulfillmentMetrics{
		transitions:     transitions,
		unitsMoved:      unitsMoved,
		returnsReceived: returnsReceived,
		unitsReturned:   unitsReturned,
	}, nil
}

// RecordTransition counts one fired trigger
func (m *FulfillmentMetrics) RecordTransition(ctx context.Context, trigger, fromStatus, toStatus string, units int64) {
	m.transitions.Inc(ctx,
		AttrTrigger.String(trigger),
		AttrFromStatus.String(fromStatus),
		AttrToStatus.String(toStatus),
	)
	if units > 0 && fromStatus != toStatus {
		m.unitsMoved.Add(ctx, units, AttrTrigger.String(trigger))
	}
}

// RecordReturnReceived counts one received expected-return entry
func (m *FulfillmentMetrics) RecordReturnReceived(ctx context.Context, crossWarehouse bool, units int64) {
	m.returnsReceived.Inc(ctx, AttrCrossWarehouse.Bool(crossWarehouse))
	m.unitsReturned.Add(ctx, units, AttrCrossWarehouse.Bool(crossWarehouse))
}

// StockLevel is the per-warehouse sum of one tenant's stock counters
type StockLevel struct {
	TenantID           uuid.UUID
	WarehouseID        uuid.UUID
	OnHand             int64
	Reserved           int64
	Delivered          int64
	ConfirmedDelivered int64
}

// StockLevelProvider reads current stock levels for the stock gauges
type StockLevelProvider interface {
	StockLevels(ctx context.Context) ([]StockLevel, error)
}

// GormStockLevelProvider aggregates stock_lines per tenant and warehouse
type GormStockLevelProvider struct {
	db *gorm.DB
}

// NewGormStockLevelProvider creates a new GormStockLevelProvider
func NewGormStockLevelProvider(db *gorm.DB) *GormStockLevelProvider {
	return &GormStockLevelProvider{db: db}
}

// StockLevels implements StockLevelProvider
func (p *GormStockLevelProvider) StockLevels(ctx context.Context) ([]StockLevel, error) {
	var levels []StockLevel
	err := p.db.WithContext(ctx).
		Table("stock_lines").
		Select(`tenant_id, warehouse_id,
			SUM(on_hand) AS on_hand,
			SUM(reserved) AS reserved,
			SUM(delivered) AS delivered,
			SUM(confirmed_delivered) AS confirmed_delivered`).
		Group("tenant_id, warehouse_id").
		Scan(&levels).Error
	return levels, err
}

// RegisterStockGauges observes per-warehouse counter totals on every collection
func RegisterStockGauges(meter metric.Meter, provider StockLevelProvider, logger *zap.Logger) error {
	gauge, err := meter.Int64ObservableGauge("fulfillment_stock_units",
		metric.WithDescription("Stock units per warehouse by ledger counter"), metric.WithUnit("{unit}"))
	if err != nil {
		return fmt.Errorf("create stock gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		levels, err := provider.StockLevels(ctx)
		if err != nil {
			logger.Warn("failed to collect stock levels", zap.Error(err))
			return nil
		}
		for _, l := range levels {
			base := []attribute.KeyValue{AttrTenantID.String(l.TenantID.String()), AttrWarehouseID.String(l.WarehouseID.String())}
			for counter, value := range map[string]int64{
				"on_hand":             l.OnHand,
				"reserved":            l.Reserved,
				"delivered":           l.Delivered,
				"confirmed_delivered": l.ConfirmedDelivered,
			} {
				o.ObserveInt64(gauge, value, metric.WithAttributes(append(base, AttrCounter.String(counter))...))
			}
		}
		return nil
	}, gauge)
	return err
}
