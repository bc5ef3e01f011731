package persistence

import (
	"slices"
	"strings"

	"github.com/erp/fulfillment/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns is the set of columns a listing may be ordered by. Requested
// columns outside the set fall back, so user input never reaches ORDER BY.
type sortColumns struct {
	table    string
	columns  []string
	fallback string
}

var (
	stockLineSort = sortColumns{
		table:    "stock_lines",
		columns:  []string{"id", "created_at", "updated_at", "product_id", "on_hand", "reserved", "delivered", "confirmed_delivered"},
		fallback: "created_at",
	}
	salesOrderSort = sortColumns{
		table:    "sales_orders",
		columns:  []string{"id", "created_at", "updated_at", "order_number", "customer_name", "status", "total_amount", "order_date", "dispatched_at"},
		fallback: "created_at",
	}
	expectedReturnSort = sortColumns{
		table:    "expected_return_entries",
		columns:  []string{"id", "created_at", "updated_at", "order_number", "status"},
		fallback: "created_at",
	}
)

// column resolves a requested column name. Matching is exact after trimming.
func (s sortColumns) column(requested string) string {
	requested = strings.TrimSpace(requested)
	if slices.Contains(s.columns, requested) {
		return requested
	}
	return s.fallback
}

// orderBy builds the ORDER BY for filter. Anything other than asc sorts descending.
func (s sortColumns) orderBy(filter shared.Filter) clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Table: s.table, Name: s.column(filter.OrderBy)},
		Desc:   !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc"),
	}
}

// listPage orders query by filter and applies its page window. A filter
// without a page returns every row.
func listPage(query *gorm.DB, filter shared.Filter, sort sortColumns) *gorm.DB {
	query = query.Order(sort.orderBy(filter))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
