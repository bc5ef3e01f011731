package persistence

import (
	"testing"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestSortColumns_Column(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"empty falls back", "", "created_at"},
		{"known column", "status", "status"},
		{"surrounding space is trimmed", "  order_number ", "order_number"},
		{"unknown column falls back", "customer_email", "created_at"},
		{"matching is case sensitive", "STATUS", "created_at"},
		{"injection falls back", "status; DROP TABLE sales_orders;--", "created_at"},
		{"quoted falls back", "status'--", "created_at"},
		{"two words fall back", "status desc", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, salesOrderSort.column(tt.requested))
		})
	}
}

func TestSortColumns_OrderBy(t *testing.T) {
	got := stockLineSort.orderBy(shared.Filter{OrderBy: "reserved", OrderDir: " ASC "})
	assert.Equal(t, clause.OrderByColumn{Column: clause.Column{Table: "stock_lines", Name: "reserved"}}, got)

	for _, dir := range []string{"", "desc", "sideways", "asc; DROP TABLE x"} {
		assert.True(t, stockLineSort.orderBy(shared.Filter{OrderDir: dir}).Desc, dir)
	}
}

func TestSortColumns_EveryListingCoversTheAuditColumns(t *testing.T) {
	for _, s := range []sortColumns{stockLineSort, salesOrderSort, expectedReturnSort} {
		for _, col := range []string{"id", "created_at", "updated_at"} {
			assert.Contains(t, s.columns, col, s.table)
		}
		assert.Contains(t, s.columns, s.fallback, s.table)
	}
}

func TestListPage_SQL(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	render := func(filter shared.Filter) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return listPage(tx.Model(&models.SalesOrderModel{}), filter, salesOrderSort).Find(&[]models.SalesOrderModel{})
		})
	}

	sql := render(shared.Filter{Page: 3, PageSize: 20, OrderBy: "total_amount", OrderDir: "asc"})
	assert.Contains(t, sql, "ORDER BY `sales_orders`.`total_amount`")
	assert.NotContains(t, sql, "DESC")
	assert.Contains(t, sql, "LIMIT 20 OFFSET 40")

	sql = render(shared.Filter{OrderBy: "evil"})
	assert.Contains(t, sql, "ORDER BY `sales_orders`.`created_at` DESC")
	assert.NotContains(t, sql, "LIMIT", "a filter without a page is unbounded")
}
