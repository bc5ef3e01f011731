package trade

import (
	"context"

	"github.com/erp/fulfillment/internal/application/authz"
	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpectedReturnService serves the expected-return register: receiving
// returned units back into stock and the pending-return queries
type ExpectedReturnService struct {
	returnRepo trade.ExpectedReturnRepository
	txScope    TransactionScope
	authorizer authz.Authorizer
	stock      stockInvalidator
	logger     *zap.Logger
}

// NewExpectedReturnService creates a new ExpectedReturnService
func NewExpectedReturnService(
	returnRepo trade.ExpectedReturnRepository,
	txScope TransactionScope,
	authorizer authz.Authorizer,
	logger *zap.Logger,
) *ExpectedReturnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpectedReturnService{
		returnRepo: returnRepo,
		txScope:    txScope,
		authorizer: authorizer,
		stock:      stockInvalidator{logger: logger},
		logger:     logger,
	}
}

// WithStockCache sets the stock cache to invalidate after each receive
func (s *ExpectedReturnService) WithStockCache(cache appinv.StockCache) *ExpectedReturnService {
	s.stock.cache = cache
	return s
}

// Receive receives an entry at the given warehouse. The stock of every line
// is added back there, the entry becomes received and its order moves to
// returned, all in one transaction. A second call fails with ALREADY_RECEIVED.
func (s *ExpectedReturnService) Receive(ctx context.Context, tenantID, entryID uuid.UUID, req ReceiveReturnRequest) (*TransitionResult, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermExpectedReturnReceive); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "expected_return", "receive",
		telemetry.WithAttribute(telemetry.SpanAttrEntryID, entryID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, req.WarehouseID.String()))
	defer span.End()

	var outcome *receiveOutcome
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.ReturnRepo().FindByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		outcome, err = receiveEntry(ctx, repos, tenantID, entry, req.WarehouseID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.stock.invalidate(ctx, tenantID, outcome.stockKeys())

	s.logger.Info("expected return received",
		zap.String("entry_id", entryID.String()),
		zap.String("order_id", outcome.order.ID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.Int64("quantity", outcome.entry.TotalQuantity()))
	return outcome.result(), nil
}

// FindPendingByOrder returns the pending entry of an order
func (s *ExpectedReturnService) FindPendingByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*ExpectedReturnResponse, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermExpectedReturnRead); err != nil {
		return nil, err
	}
	entry, err := s.returnRepo.FindPendingByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToExpectedReturnResponse(entry)
	return &response, nil
}

// ListPendingByWarehouse lists the pending entries dispatched from a warehouse
func (s *ExpectedReturnService) ListPendingByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, page, pageSize int) (*shared.Paginated[ExpectedReturnResponse], error) {
	if err := s.authorizer.Authorize(ctx, authz.PermExpectedReturnRead); err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter()
	filter.OrderDir = "asc"
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}

	entries, total, err := s.returnRepo.FindPendingByWarehouse(ctx, tenantID, warehouseID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ExpectedReturnResponse, len(entries))
	for i := range entries {
		items[i] = ToExpectedReturnResponse(&entries[i])
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

type receiveOutcome struct {
	entry *trade.ExpectedReturnEntry
	order *trade.SalesOrder
	lines []*inventory.StockLine
}

// stockKeys are the receiving lines plus the origin lines whose projection dropped
func (o *receiveOutcome) stockKeys() []inventory.StockKey {
	return append(lineKeys(o.lines), entryKeys(o.entry)...)
}

func (o *receiveOutcome) result() *TransitionResult {
	orderResp := ToOrderResponse(o.order)
	entryResp := ToExpectedReturnResponse(o.entry)
	return &TransitionResult{
		Order:          &orderResp,
		Stock:          stockResponses(o.lines),
		ExpectedReturn: &entryResp,
	}
}

// receiveEntry runs inside a transaction: entry, order and stock change together
func receiveEntry(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, entry *trade.ExpectedReturnEntry, warehouseID uuid.UUID) (*receiveOutcome, error) {
	if err := entry.Receive(warehouseID); err != nil {
		return nil, err
	}
	if err := repos.ReturnRepo().SaveWithLock(ctx, entry); err != nil {
		return nil, err
	}

	order, err := repos.OrderRepo().FindByID(ctx, tenantID, entry.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.MarkReturned(); err != nil {
		return nil, err
	}
	if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	movements, err := entry.ReceiveMovements(warehouseID)
	if err != nil {
		return nil, err
	}
	lines, err := applyMovements(ctx, repos.Ledger(), tenantID, movements)
	if err != nil {
		return nil, err
	}

	events := make([]shared.DomainEvent, 0, len(lines)+2)
	events = append(events, entry.GetDomainEvents()...)
	events = append(events, order.GetDomainEvents()...)
	for _, line := range lines {
		events = append(events, line.GetDomainEvents()...)
	}
	if err := repos.Events().Record(ctx, events...); err != nil {
		return nil, err
	}
	entry.ClearDomainEvents()
	order.ClearDomainEvents()

	return &receiveOutcome{entry: entry, order: order, lines: lines}, nil
}
