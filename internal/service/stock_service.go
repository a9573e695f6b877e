package service

import (
	"context"

	"oncestock/internal/domain"
	"oncestock/internal/events"
	"oncestock/internal/metrics"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
)

// StockService applies movements and fans out the side effects: cache
// invalidation, metrics, the spreadsheet mirror and low-stock events.
type StockService struct {
	repo   domain.Repository
	cache  domain.CacheRepository
	bus    *events.EventBus
	sync   domain.SyncWorker
	logger *zerolog.Logger
}

func NewStockService(repo domain.Repository, cache domain.CacheRepository, bus *events.EventBus, sync domain.SyncWorker, logger *zerolog.Logger) *StockService {
	return &StockService{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		sync:   sync,
		logger: logger,
	}
}

// Apply records one movement and returns the product with its new balance.
func (s *StockService) Apply(ctx context.Context, productID int64, movementType string, quantity int64, unitPrice float64, note string) (*models.Product, error) {
	movement := &models.Movement{
		ProductID: productID,
		Type:      movementType,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Note:      note,
	}

	product, err := s.repo.ApplyMovement(ctx, movement)
	if err != nil {
		return nil, err
	}

	metrics.IncMovement(movementType)
	s.logger.Info().
		Str("code", product.Code).
		Str("type", movementType).
		Int64("quantity", quantity).
		Int64("stock", product.Stock).
		Msg("Movement applied")

	s.afterMovement(ctx, movement, product)
	return product, nil
}

// Scan is the barcode fast path: resolve by code or barcode, then apply a
// single-unit (or qty) movement at the product's list price.
func (s *StockService) Scan(ctx context.Context, code string, movementType string, quantity int64) (*models.Product, error) {
	product, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		quantity = 1
	}
	return s.Apply(ctx, product.ID, movementType, quantity, product.Price, models.NoteScanned)
}

func (s *StockService) Movements(ctx context.Context, productID int64, limit int) ([]models.Movement, error) {
	return s.repo.ListMovements(ctx, productID, limit)
}

func (s *StockService) lookup(ctx context.Context, code string) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, code)
		if err != nil {
			s.logger.Warn().Err(err).Str("code", code).Msg("Product cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	product, err := s.repo.GetProductByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn().Err(err).Str("code", code).Msg("Product cache write failed")
		}
	}
	return product, nil
}

func (s *StockService) afterMovement(ctx context.Context, movement *models.Movement, product *models.Product) {
	if s.cache != nil {
		if err := s.cache.InvalidateProduct(ctx, product.Code); err != nil {
			s.logger.Warn().Err(err).Str("code", product.Code).Msg("Product cache invalidation failed")
		}
		if product.Barcode != "" {
			if err := s.cache.InvalidateProduct(ctx, product.Barcode); err != nil {
				s.logger.Warn().Err(err).Str("barcode", product.Barcode).Msg("Product cache invalidation failed")
			}
		}
	}

	payload := events.NewMovementPayload(movement, product)
	if err := s.bus.PublishJSON(events.EventMovementApplied, payload); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish movement event")
	}

	if product.BelowMinimum() {
		if err := s.bus.PublishJSON(events.EventLowStock, payload); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish low stock event")
		}
	}

	if s.sync != nil {
		if err := s.sync.EnqueueMovement(ctx, movement); err != nil {
			s.logger.Warn().Err(err).Int64("movement_id", movement.ID).Msg("Failed to enqueue movement sync")
		}
	}
}

// RefreshLowStockGauge recounts products below their minimum; called after
// movements and on a timer from main.
func (s *StockService) RefreshLowStockGauge(ctx context.Context) {
	low, err := s.repo.LowStockProducts(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count low stock products")
		return
	}
	metrics.SetLowStock(len(low))
}
