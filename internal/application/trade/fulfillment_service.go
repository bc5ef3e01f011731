package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentService runs the sales order state machine. Every transition
// executes in one transaction covering the order row, the stock lines of all
// order lines and the expected-return entry.
type FulfillmentService struct {
	orderRepo  trade.SalesOrderRepository
	returnRepo trade.ExpectedReturnRepository
	txScope    TransactionScope
	authorizer authz.Authorizer
	stock      stockInvalidator
	logger     *zap.Logger
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	orderRepo trade.SalesOrderRepository,
	returnRepo trade.ExpectedReturnRepository,
	txScope TransactionScope,
	authorizer authz.Authorizer,
	logger *zap.Logger,
) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		txScope:    txScope,
		authorizer: authorizer,
		stock:      stockInvalidator{logger: logger},
		logger:     logger,
	}
}

// WithStockCache sets the stock cache to invalidate after each committed transition
func (s *FulfillmentService) WithStockCache(cache appinv.StockCache) *FulfillmentService {
	s.stock.cache = cache
	return s
}

// Create creates a pending order
func (s *FulfillmentService) Create(ctx context.Context, tenantID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermOrderCreate); err != nil {
		return nil, err
	}

	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		orderNumber = generateOrderNumber(time.Now())
	}
	exists, err := s.orderRepo.ExistsByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Order number %s already exists", orderNumber))
	}

	order, err := trade.NewSalesOrder(tenantID, orderNumber, req.CustomerName, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if req.OrderDate != nil {
		order.OrderDate = *req.OrderDate
	}
	if req.DeliveryAddress != "" {
		order.SetDeliveryAddress(req.DeliveryAddress)
	}
	if req.Remark != "" {
		order.SetRemark(req.Remark)
	}
	for _, line := range req.Lines {
		if _, err := order.AddLine(line.ProductID, line.VariantID, line.Quantity, line.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := order.MarkCreated(); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return err
		}
		return repos.Events().Record(ctx, order.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	order.ClearDomainEvents()

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *FulfillmentService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermOrderRead); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *FulfillmentService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderListItemResponse], error) {
	if err := s.authorizer.Authorize(ctx, authz.PermOrderRead); err != nil {
		return nil, err
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.WarehouseID != nil {
		domainFilter.Filters["warehouse_id"] = *filter.WarehouseID
	}

	orders, total, err := s.orderRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	items := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderListItemResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Transition fires a trigger on an order.
//
// The capability check runs before any state is read. The order status,
// the ledger movements of every line and the expected-return entry commit
// together; if any line fails, nothing changes.
func (s *FulfillmentService) Transition(ctx context.Context, tenantID, orderID uuid.UUID, req TransitionRequest) (*TransitionResult, error) {
	trigger, err := trade.ParseTrigger(req.Trigger)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, TriggerPermission(trigger)); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "transition",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTrigger, trigger.String()))
	defer span.End()

	var result *TransitionResult
	switch trigger {
	case trade.TriggerDelete:
		result, err = s.delete(ctx, tenantID, orderID)
	case trade.TriggerReceiveReturn:
		result, err = s.receiveForOrder(ctx, tenantID, orderID, req.WarehouseID)
	default:
		result, err = s.fire(ctx, tenantID, orderID, trigger, req.Reason)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Info("order transition rejected",
			zap.String("order_id", orderID.String()),
			zap.String("trigger", trigger.String()),
			zap.Error(err))
		return nil, err
	}

	if result.Order != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrOrderStatus, result.Order.Status)
	}
	return result, nil
}

// Delete removes an order that has not been dispatched
func (s *FulfillmentService) Delete(ctx context.Context, tenantID, orderID uuid.UUID) error {
	_, err := s.Transition(ctx, tenantID, orderID, TransitionRequest{Trigger: trade.TriggerDelete.String()})
	return err
}

func (s *FulfillmentService) fire(ctx context.Context, tenantID, orderID uuid.UUID, trigger trade.Trigger, reason string) (*TransitionResult, error) {
	var (
		order *trade.SalesOrder
		entry *trade.ExpectedReturnEntry
		lines []*inventory.StockLine
		from  trade.OrderStatus
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		from = order.Status

		entry, err = order.Fire(trigger, reason)
		if err != nil {
			return err
		}
		movements, err := order.Movements(trigger)
		if err != nil {
			return err
		}

		// Claim the order version first so a concurrent transition on the
		// same order fails before touching any stock line.
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}

		lines, err = applyMovements(ctx, repos.Ledger(), tenantID, movements)
		if err != nil {
			return err
		}

		events := make([]shared.DomainEvent, 0, len(lines)+2)
		events = append(events, order.GetDomainEvents()...)
		if entry != nil {
			if err := repos.ReturnRepo().Create(ctx, entry); err != nil {
				return err
			}
			events = append(events, entry.GetDomainEvents()...)
		}
		for _, line := range lines {
			events = append(events, line.GetDomainEvents()...)
		}
		return repos.Events().Record(ctx, events...)
	})
	if err != nil {
		return nil, err
	}
	order.ClearDomainEvents()
	s.stock.invalidate(ctx, tenantID, append(lineKeys(lines), entryKeys(entry)...))

	s.logger.Info("order transitioned",
		zap.String("order_id", order.ID.String()),
		zap.String("trigger", trigger.String()),
		zap.String("from", from.String()),
		zap.String("to", order.Status.String()),
		zap.String("qc_status", order.QCStatus.String()))

	orderResp := ToOrderResponse(order)
	result := &TransitionResult{
		Order: &orderResp,
		Stock: stockResponses(lines),
	}
	if entry != nil {
		entryResp := ToExpectedReturnResponse(entry)
		result.ExpectedReturn = &entryResp
	}
	return result, nil
}

func (s *FulfillmentService) delete(ctx context.Context, tenantID, orderID uuid.UUID) (*TransitionResult, error) {
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.EnsureDeletable(); err != nil {
			return err
		}
		if err := repos.OrderRepo().Delete(ctx, order); err != nil {
			return err
		}
		return repos.Events().Record(ctx, order.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order deleted", zap.String("order_id", orderID.String()))
	return &TransitionResult{Deleted: true}, nil
}

// receiveForOrder resolves the order's pending entry and receives it.
// Without an explicit warehouse the units go back to the dispatch warehouse.
func (s *FulfillmentService) receiveForOrder(ctx context.Context, tenantID, orderID uuid.UUID, warehouseID *uuid.UUID) (*TransitionResult, error) {
	var outcome *receiveOutcome
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.ReturnRepo().FindPendingByOrder(ctx, tenantID, orderID)
		if err != nil {
			// The order exists but is not awaiting a return: report the state, not the entry.
			if shared.IsNotFound(err) {
				order, findErr := repos.OrderRepo().FindByID(ctx, tenantID, orderID)
				if findErr != nil {
					return findErr
				}
				return trade.NewIllegalTransitionError(order.Status, order.QCStatus, trade.TriggerReceiveReturn)
			}
			return err
		}
		target := entry.WarehouseID
		if warehouseID != nil && *warehouseID != uuid.Nil {
			target = *warehouseID
		}
		outcome, err = receiveEntry(ctx, repos, tenantID, entry, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.stock.invalidate(ctx, tenantID, outcome.stockKeys())

	s.logger.Info("expected return received",
		zap.String("order_id", orderID.String()),
		zap.String("entry_id", outcome.entry.ID.String()),
		zap.String("warehouse_id", outcome.entry.ReceivedWarehouseID.String()))
	return outcome.result(), nil
}

func applyMovements(ctx context.Context, ledger inventory.StockLedger, tenantID uuid.UUID, movements []inventory.Movement) ([]*inventory.StockLine, error) {
	lines := make([]*inventory.StockLine, 0, len(movements))
	for _, m := range movements {
		line, err := inventory.ApplyMovement(ctx, ledger, tenantID, m)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func stockResponses(lines []*inventory.StockLine) []appinv.StockLineResponse {
	if len(lines) == 0 {
		return nil
	}
	responses := make([]appinv.StockLineResponse, len(lines))
	for i, line := range lines {
		responses[i] = appinv.ToStockLineResponse(line)
	}
	return responses
}

func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("SO-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
