package models

import (
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockLineModel is the persistence model for the StockLine aggregate root.
type StockLineModel struct {
	TenantAggregateModel
	WarehouseID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_key,priority:1"`
	ProductID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_key,priority:2"`
	VariantID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_key,priority:3"`
	OnHand             int64     `gorm:"not null;default:0"`
	Reserved           int64     `gorm:"not null;default:0"`
	Delivered          int64     `gorm:"not null;default:0"`
	ConfirmedDelivered int64     `gorm:"not null;default:0"`
	// ExpectedReturn is selected as a subquery over pending expected-return lines
	ExpectedReturn int64 `gorm:"->;-:migration"`
}

// TableName returns the table name for GORM
func (StockLineModel) TableName() string {
	return "stock_lines"
}

// ToDomain converts the persistence model to a domain StockLine
func (m *StockLineModel) ToDomain() *inventory.StockLine {
	line := &inventory.StockLine{
		WarehouseID:        m.WarehouseID,
		ProductID:          m.ProductID,
		VariantID:          VariantFromColumn(m.VariantID),
		OnHand:             m.OnHand,
		Reserved:           m.Reserved,
		Delivered:          m.Delivered,
		ConfirmedDelivered: m.ConfirmedDelivered,
		ExpectedReturn:     m.ExpectedReturn,
	}
	m.PopulateTenantAggregateRoot(&line.TenantAggregateRoot)
	return line
}

// FromDomain populates the persistence model from a domain StockLine
func (m *StockLineModel) FromDomain(l *inventory.StockLine) {
	m.FromDomainTenantAggregateRoot(l.TenantAggregateRoot)
	m.WarehouseID = l.WarehouseID
	m.ProductID = l.ProductID
	m.VariantID = VariantColumn(l.VariantID)
	m.OnHand = l.OnHand
	m.Reserved = l.Reserved
	m.Delivered = l.Delivered
	m.ConfirmedDelivered = l.ConfirmedDelivered
}

// StockLineModelFromDomain creates a new persistence model from a domain StockLine
func StockLineModelFromDomain(l *inventory.StockLine) *StockLineModel {
	m := &StockLineModel{}
	m.FromDomain(l)
	return m
}
