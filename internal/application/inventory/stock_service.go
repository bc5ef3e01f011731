package inventory

import (
	"context"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockCache is a read-through cache of stock line snapshots.
// Implementations fail open: a cache error is a miss, never a request failure.
type StockCache interface {
	Get(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*StockLineResponse, bool)
	Set(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, line StockLineResponse)
	Invalidate(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) error
}

// StockService serves stock ledger reads and stock line registration
type StockService struct {
	stockRepo  inventory.StockLineRepository
	ledger     inventory.StockLedger
	txScope    TransactionScope
	authorizer authz.Authorizer
	cache      StockCache
	logger     *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	stockRepo inventory.StockLineRepository,
	ledger inventory.StockLedger,
	txScope TransactionScope,
	authorizer authz.Authorizer,
	logger *zap.Logger,
) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		stockRepo:  stockRepo,
		ledger:     ledger,
		txScope:    txScope,
		authorizer: authorizer,
		logger:     logger,
	}
}

// WithCache enables the read-through stock cache
func (s *StockService) WithCache(cache StockCache) *StockService {
	s.cache = cache
	return s
}

// GetStock returns the counters of exactly one stock line
func (s *StockService) GetStock(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*StockLineResponse, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermInventoryRead); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, tenantID, key); ok {
			return cached, nil
		}
	}

	line, err := s.stockRepo.FindByKey(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	response := ToStockLineResponse(line)

	if s.cache != nil {
		s.cache.Set(ctx, tenantID, key, response)
	}
	return &response, nil
}

// GetAvailable returns the units that can still be reserved on a stock line
func (s *StockService) GetAvailable(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*AvailabilityResponse, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermInventoryRead); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	available, err := s.ledger.GetAvailable(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{
		WarehouseID: key.WarehouseID,
		ProductID:   key.ProductID,
		VariantID:   key.VariantID,
		Available:   available,
	}, nil
}

// ListByWarehouse lists the stock lines of a warehouse
func (s *StockService) ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter StockListFilter) (*shared.Paginated[StockLineResponse], error) {
	if err := s.authorizer.Authorize(ctx, authz.PermInventoryRead); err != nil {
		return nil, err
	}

	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "product_id"
	domainFilter.OrderDir = "asc"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	lines, total, err := s.stockRepo.FindByWarehouse(ctx, tenantID, warehouseID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToStockLineResponses(lines), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Register creates a stock line with an opening on-hand balance
func (s *StockService) Register(ctx context.Context, tenantID, warehouseID uuid.UUID, req RegisterStockLineRequest) (*StockLineResponse, error) {
	if err := s.authorizer.Authorize(ctx, authz.PermInventoryManage); err != nil {
		return nil, err
	}

	line, err := inventory.NewStockLine(tenantID, inventory.NewStockKey(warehouseID, req.ProductID, req.VariantID), req.OnHand)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.StockRepo().Create(ctx, line); err != nil {
			return err
		}
		return repos.Events().Record(ctx, line.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	line.ClearDomainEvents()

	s.logger.Info("stock line registered",
		zap.String("stock_line_id", line.ID.String()),
		zap.String("key", line.Key().String()),
		zap.Int64("on_hand", line.OnHand))

	response := ToStockLineResponse(line)
	return &response, nil
}
