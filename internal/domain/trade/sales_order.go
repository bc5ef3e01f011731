package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one product (or variant) line of a sales order
type OrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	LineNo    int
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Amount returns quantity * unit price
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// StockKey returns the ledger key of the line at the given warehouse
func (l OrderLine) StockKey(warehouseID uuid.UUID) inventory.StockKey {
	return inventory.NewStockKey(warehouseID, l.ProductID, l.VariantID)
}

// SalesOrder is the aggregate root driving the fulfillment workflow.
// Status only changes through triggers; see CanFire for the rules.
type SalesOrder struct {
	shared.TenantAggregateRoot
	OrderNumber          string
	CustomerName         string
	DeliveryAddress      string
	WarehouseID          uuid.UUID
	Lines                []OrderLine
	Status               OrderStatus
	QCStatus             QCStatus
	TotalAmount          decimal.Decimal
	Remark               string
	OrderDate            time.Time
	QCReviewedAt         *time.Time
	ConfirmedAt          *time.Time
	DispatchedAt         *time.Time
	DeliveredAt          *time.Time
	ConfirmedDeliveredAt *time.Time
	ExpectedReturnAt     *time.Time
	ReturnedAt           *time.Time
	CancelledAt          *time.Time
	CancelReason         string
}

// NewSalesOrder creates a pending order with no QC review yet
func NewSalesOrder(tenantID uuid.UUID, orderNumber, customerName string, warehouseID uuid.UUID) (*SalesOrder, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order number cannot exceed 50 characters")
	}
	if strings.TrimSpace(customerName) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Warehouse ID cannot be empty")
	}

	order := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerName:        customerName,
		WarehouseID:         warehouseID,
		Lines:               make([]OrderLine, 0),
		Status:              OrderStatusPending,
		QCStatus:            QCStatusNone,
		TotalAmount:         decimal.Zero,
		OrderDate:           time.Now(),
	}
	return order, nil
}

// AddLine adds a product line. Lines can only change while the order is pending.
func (o *SalesOrder) AddLine(productID uuid.UUID, variantID *uuid.UUID, quantity int64, unitPrice decimal.Decimal) (*OrderLine, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError(shared.CodeIllegalTransition, fmt.Sprintf("Cannot add lines to order in %s status", o.Status))
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewInvalidQuantityError(quantity)
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit price cannot be negative")
	}
	if variantID != nil && *variantID == uuid.Nil {
		variantID = nil
	}

	key := inventory.NewStockKey(o.WarehouseID, productID, variantID)
	for _, existing := range o.Lines {
		if existing.StockKey(o.WarehouseID).Equal(key) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Order already has a line for %s", key))
		}
	}

	line := OrderLine{
		ID:        uuid.New(),
		OrderID:   o.ID,
		LineNo:    len(o.Lines) + 1,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	o.Lines = append(o.Lines, line)
	o.recalculateTotal()
	o.Touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// SetDeliveryAddress sets the opaque delivery address
func (o *SalesOrder) SetDeliveryAddress(address string) {
	o.DeliveryAddress = address
	o.Touch()
}

// SetRemark sets the order remark
func (o *SalesOrder) SetRemark(remark string) {
	o.Remark = remark
	o.Touch()
}

// MarkCreated records the creation event once the order is complete
func (o *SalesOrder) MarkCreated() error {
	if len(o.Lines) == 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Order must have at least one line")
	}
	o.AddDomainEvent(NewSalesOrderCreatedEvent(o))
	return nil
}

// Confirm moves a pending order to confirmed
func (o *SalesOrder) Confirm() error {
	return o.fire(TriggerConfirm, func(now time.Time) {
		o.ConfirmedAt = &now
	})
}

// ApproveQC approves quality control, unlocking dispatch
func (o *SalesOrder) ApproveQC() error {
	return o.fire(TriggerApproveQC, func(now time.Time) {
		o.QCStatus = QCStatusApproved
		o.QCReviewedAt = &now
	})
}

// RejectQC rejects quality control. The order can no longer be dispatched.
func (o *SalesOrder) RejectQC() error {
	return o.fire(TriggerRejectQC, func(now time.Time) {
		o.QCStatus = QCStatusRejected
		o.QCReviewedAt = &now
	})
}

// Dispatch marks the order dispatched. Callers reserve stock for every line
// in the same unit of work.
func (o *SalesOrder) Dispatch() error {
	if len(o.Lines) == 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cannot dispatch order without lines")
	}
	return o.fire(TriggerDispatch, func(now time.Time) {
		o.DispatchedAt = &now
	})
}

// Deliver marks a dispatched order delivered
func (o *SalesOrder) Deliver() error {
	return o.fire(TriggerDeliver, func(now time.Time) {
		o.DeliveredAt = &now
	})
}

// ConfirmDelivered finalizes the sale of a delivered order
func (o *SalesOrder) ConfirmDelivered() error {
	return o.fire(TriggerConfirmDelivered, func(now time.Time) {
		o.ConfirmedDeliveredAt = &now
	})
}

// MarkExpectedReturn flags a delivered order as coming back and returns the
// register entry that tracks the physical return
func (o *SalesOrder) MarkExpectedReturn() (*ExpectedReturnEntry, error) {
	if err := o.fire(TriggerMarkExpectedReturn, func(now time.Time) {
		o.ExpectedReturnAt = &now
	}); err != nil {
		return nil, err
	}
	return NewExpectedReturnEntry(o)
}

// MarkReturned closes an expected return once its entry has been received
func (o *SalesOrder) MarkReturned() error {
	return o.fire(TriggerReceiveReturn, func(now time.Time) {
		o.ReturnedAt = &now
	})
}

// Cancel cancels an order that has not been dispatched
func (o *SalesOrder) Cancel(reason string) error {
	return o.fire(TriggerCancel, func(now time.Time) {
		o.CancelledAt = &now
		o.CancelReason = reason
	})
}

// EnsureDeletable checks the delete trigger and records the deletion event
func (o *SalesOrder) EnsureDeletable() error {
	if err := o.CanFire(TriggerDelete); err != nil {
		return err
	}
	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, TriggerDelete, o.Status, o.QCStatus))
	return nil
}

// Fire applies the order-side effect of a trigger. The returned entry is
// non-nil only for markExpectedReturn.
func (o *SalesOrder) Fire(trigger Trigger, reason string) (*ExpectedReturnEntry, error) {
	switch trigger {
	case TriggerConfirm:
		return nil, o.Confirm()
	case TriggerApproveQC:
		return nil, o.ApproveQC()
	case TriggerRejectQC:
		return nil, o.RejectQC()
	case TriggerDispatch:
		return nil, o.Dispatch()
	case TriggerDeliver:
		return nil, o.Deliver()
	case TriggerConfirmDelivered:
		return nil, o.ConfirmDelivered()
	case TriggerMarkExpectedReturn:
		return o.MarkExpectedReturn()
	case TriggerReceiveReturn:
		return nil, o.MarkReturned()
	case TriggerCancel:
		return nil, o.Cancel(reason)
	case TriggerDelete:
		return nil, o.EnsureDeletable()
	}
	return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown trigger %q", trigger))
}

func (o *SalesOrder) fire(trigger Trigger, apply func(now time.Time)) error {
	if err := o.CanFire(trigger); err != nil {
		return err
	}

	fromStatus, fromQC := o.Status, o.QCStatus
	now := time.Now()
	if target := transitionRules[trigger].target; target != "" {
		o.Status = target
	}
	apply(now)
	o.UpdatedAt = now

	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, trigger, fromStatus, fromQC))
	return nil
}

// Movements builds the ledger movements of a trigger for every line at the
// dispatch warehouse, in line order
func (o *SalesOrder) Movements(trigger Trigger) ([]inventory.Movement, error) {
	kind, ok := LedgerMovement(trigger)
	if !ok {
		return nil, nil
	}
	movements := make([]inventory.Movement, 0, len(o.Lines))
	for _, line := range o.Lines {
		m, err := inventory.NewMovement(kind, line.StockKey(o.WarehouseID), line.Quantity)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, nil
}

func (o *SalesOrder) recalculateTotal() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Amount())
	}
	o.TotalAmount = total.Round(2)
}

// TotalQuantity returns the sum of all line quantities
func (o *SalesOrder) TotalQuantity() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.Quantity
	}
	return total
}

// IsTerminal reports whether the order has reached a final status
func (o *SalesOrder) IsTerminal() bool {
	return o.Status.IsTerminal()
}
