package models

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	TenantAggregateModel
	OrderNumber          string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_order_tenant_number,priority:2"`
	CustomerName         string                `gorm:"type:varchar(200);not null"`
	DeliveryAddress      string                `gorm:"type:varchar(500)"`
	WarehouseID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	Lines                []SalesOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
	Status               trade.OrderStatus     `gorm:"type:varchar(30);not null;default:'pending';index"`
	QCStatus             trade.QCStatus        `gorm:"column:qc_status;type:varchar(20);not null;default:'none'"`
	TotalAmount          decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Remark               string                `gorm:"type:text"`
	OrderDate            time.Time             `gorm:"not null"`
	QCReviewedAt         *time.Time            `gorm:"column:qc_reviewed_at"`
	ConfirmedAt          *time.Time
	DispatchedAt         *time.Time `gorm:"index"`
	DeliveredAt          *time.Time
	ConfirmedDeliveredAt *time.Time
	ExpectedReturnAt     *time.Time
	ReturnedAt           *time.Time
	CancelledAt          *time.Time
	CancelReason         string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		OrderNumber:          m.OrderNumber,
		CustomerName:         m.CustomerName,
		DeliveryAddress:      m.DeliveryAddress,
		WarehouseID:          m.WarehouseID,
		Status:               m.Status,
		QCStatus:             m.QCStatus,
		TotalAmount:          m.TotalAmount,
		Remark:               m.Remark,
		OrderDate:            m.OrderDate,
		QCReviewedAt:         m.QCReviewedAt,
		ConfirmedAt:          m.ConfirmedAt,
		DispatchedAt:         m.DispatchedAt,
		DeliveredAt:          m.DeliveredAt,
		ConfirmedDeliveredAt: m.ConfirmedDeliveredAt,
		ExpectedReturnAt:     m.ExpectedReturnAt,
		ReturnedAt:           m.ReturnedAt,
		CancelledAt:          m.CancelledAt,
		CancelReason:         m.CancelReason,
		Lines:                make([]trade.OrderLine, len(m.Lines)),
	}
	m.PopulateTenantAggregateRoot(&order.TenantAggregateRoot)
	for i := range m.Lines {
		order.Lines[i] = m.Lines[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SalesOrder
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerName = o.CustomerName
	m.DeliveryAddress = o.DeliveryAddress
	m.WarehouseID = o.WarehouseID
	m.Status = o.Status
	m.QCStatus = o.QCStatus
	m.TotalAmount = o.TotalAmount
	m.Remark = o.Remark
	m.OrderDate = o.OrderDate
	m.QCReviewedAt = o.QCReviewedAt
	m.ConfirmedAt = o.ConfirmedAt
	m.DispatchedAt = o.DispatchedAt
	m.DeliveredAt = o.DeliveredAt
	m.ConfirmedDeliveredAt = o.ConfirmedDeliveredAt
	m.ExpectedReturnAt = o.ExpectedReturnAt
	m.ReturnedAt = o.ReturnedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Lines = make([]SalesOrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i] = SalesOrderLineModelFromDomain(o.Lines[i], o.CreatedAt, o.UpdatedAt)
	}
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}

// SalesOrderLineModel is the persistence model for an OrderLine.
type SalesOrderLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo    int             `gorm:"not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine
func (m *SalesOrderLineModel) ToDomain() trade.OrderLine {
	return trade.OrderLine{
		ID:        m.ID,
		OrderID:   m.OrderID,
		LineNo:    m.LineNo,
		ProductID: m.ProductID,
		VariantID: VariantFromColumn(m.VariantID),
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
}

// SalesOrderLineModelFromDomain creates a line model from a domain OrderLine
func SalesOrderLineModelFromDomain(l trade.OrderLine, createdAt, updatedAt time.Time) SalesOrderLineModel {
	return SalesOrderLineModel{
		ID:        l.ID,
		OrderID:   l.OrderID,
		LineNo:    l.LineNo,
		ProductID: l.ProductID,
		VariantID: VariantColumn(l.VariantID),
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ExpectedReturnEntryModel is the persistence model for the ExpectedReturnEntry aggregate root.
type ExpectedReturnEntryModel struct {
	TenantAggregateModel
	OrderID             uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex"`
	OrderNumber         string             `gorm:"type:varchar(50);not null"`
	WarehouseID         uuid.UUID          `gorm:"type:uuid;not null;index:idx_expected_return_warehouse_status,priority:1"`
	Status              trade.ReturnStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_expected_return_warehouse_status,priority:2"`
	ReceivedWarehouseID *uuid.UUID         `gorm:"type:uuid"`
	ReceivedAt          *time.Time
	Lines               []ExpectedReturnLineModel `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (ExpectedReturnEntryModel) TableName() string {
	return "expected_return_entries"
}

// ToDomain converts the persistence model to a domain ExpectedReturnEntry
func (m *ExpectedReturnEntryModel) ToDomain() *trade.ExpectedReturnEntry {
	entry := &trade.ExpectedReturnEntry{
		OrderID:             m.OrderID,
		OrderNumber:         m.OrderNumber,
		WarehouseID:         m.WarehouseID,
		Status:              m.Status,
		ReceivedWarehouseID: m.ReceivedWarehouseID,
		ReceivedAt:          m.ReceivedAt,
		Lines:               make([]trade.ExpectedReturnLine, len(m.Lines)),
	}
	m.PopulateTenantAggregateRoot(&entry.TenantAggregateRoot)
	for i, l := range m.Lines {
		entry.Lines[i] = trade.ExpectedReturnLine{
			ID:        l.ID,
			EntryID:   l.EntryID,
			ProductID: l.ProductID,
			VariantID: VariantFromColumn(l.VariantID),
			Quantity:  l.Quantity,
		}
	}
	return entry
}

// FromDomain populates the persistence model from a domain ExpectedReturnEntry
func (m *ExpectedReturnEntryModel) FromDomain(e *trade.ExpectedReturnEntry) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.OrderID = e.OrderID
	m.OrderNumber = e.OrderNumber
	m.WarehouseID = e.WarehouseID
	m.Status = e.Status
	m.ReceivedWarehouseID = e.ReceivedWarehouseID
	m.ReceivedAt = e.ReceivedAt
	m.Lines = make([]ExpectedReturnLineModel, len(e.Lines))
	for i, l := range e.Lines {
		m.Lines[i] = ExpectedReturnLineModel{
			ID:        l.ID,
			EntryID:   e.ID,
			ProductID: l.ProductID,
			VariantID: VariantColumn(l.VariantID),
			Quantity:  l.Quantity,
		}
	}
}

// ExpectedReturnEntryModelFromDomain creates a new persistence model from a domain ExpectedReturnEntry
func ExpectedReturnEntryModelFromDomain(e *trade.ExpectedReturnEntry) *ExpectedReturnEntryModel {
	m := &ExpectedReturnEntryModel{}
	m.FromDomain(e)
	return m
}

// ExpectedReturnLineModel is the persistence model for an ExpectedReturnLine.
type ExpectedReturnLineModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	EntryID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_expected_return_line_product,priority:1"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;index:idx_expected_return_line_product,priority:2"`
	Quantity  int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExpectedReturnLineModel) TableName() string {
	return "expected_return_lines"
}
