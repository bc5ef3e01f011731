package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupFulfillmentTestDB opens a private in-memory database with the fulfillment schema
func setupFulfillmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps nested transactions on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.StockLineModel{},
		&models.SalesOrderModel{},
		&models.SalesOrderLineModel{},
		&models.ExpectedReturnEntryModel{},
		&models.ExpectedReturnLineModel{},
		&models.OutboxEntryModel{},
	))
	return db
}

func registerLine(t *testing.T, db *gorm.DB, tenantID uuid.UUID, key inventory.StockKey, onHand int64) *inventory.StockLine {
	t.Helper()
	line, err := inventory.NewStockLine(tenantID, key, onHand)
	require.NoError(t, err)
	require.NoError(t, NewGormStockLineRepository(db).Create(context.Background(), line))
	return line
}

func newOrder(t *testing.T, tenantID, warehouseID uuid.UUID, number string, lines ...inventory.StockKey) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder(tenantID, number, "Acme Retail", warehouseID)
	require.NoError(t, err)
	for _, key := range lines {
		_, err := order.AddLine(key.ProductID, key.VariantID, 3, decimal.NewFromInt(25))
		require.NoError(t, err)
	}
	require.NoError(t, order.MarkCreated())
	return order
}
