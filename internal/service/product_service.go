package service

import (
	"context"

	"oncestock/internal/domain"
	"oncestock/internal/events"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
)

// ProductService handles catalog operations. It keeps the cache and the
// spreadsheet mirror in step with the database; both are optional and nil
// when the deployment runs without redis or Google credentials.
type ProductService struct {
	repo   domain.Repository
	cache  domain.CacheRepository
	bus    *events.EventBus
	sync   domain.SyncWorker
	logger *zerolog.Logger
}

func NewProductService(repo domain.Repository, cache domain.CacheRepository, bus *events.EventBus, sync domain.SyncWorker, logger *zerolog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		sync:   sync,
		logger: logger,
	}
}

func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return err
	}

	s.logger.Info().Str("code", product.Code).Str("name", product.Name).Msg("Product created")
	s.publishCatalogEvent(events.EventProductCreated, product)
	s.enqueueSnapshot(ctx)
	return nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetByCode resolves a product by code or barcode, serving from cache when
// possible.
func (s *ProductService) GetByCode(ctx context.Context, code string) (*models.Product, error) {
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

func (s *ProductService) List(ctx context.Context, filter string) ([]models.Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

func (s *ProductService) Update(ctx context.Context, product *models.Product) error {
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return err
	}

	s.invalidate(ctx, product)
	s.logger.Info().Str("code", product.Code).Msg("Product updated")
	s.publishCatalogEvent(events.EventProductUpdated, product)
	s.enqueueSnapshot(ctx)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	// Load first so the cache entry can be dropped by code.
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, product)
	s.logger.Info().Str("code", product.Code).Msg("Product deleted")
	s.publishCatalogEvent(events.EventProductDeleted, product)
	s.enqueueSnapshot(ctx)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, product *models.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, product.Code); err != nil {
		s.logger.Warn().Err(err).Str("code", product.Code).Msg("Product cache invalidation failed")
	}
	if product.Barcode != "" {
		if err := s.cache.InvalidateProduct(ctx, product.Barcode); err != nil {
			s.logger.Warn().Err(err).Str("barcode", product.Barcode).Msg("Product cache invalidation failed")
		}
	}
}

func (s *ProductService) publishCatalogEvent(eventType string, product *models.Product) {
	err := s.bus.PublishJSON(eventType, events.ProductEventPayload{
		ProductID: product.ID,
		Code:      product.Code,
		Name:      product.Name,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish catalog event")
	}
}

func (s *ProductService) enqueueSnapshot(ctx context.Context) {
	if s.sync == nil {
		return
	}
	if err := s.sync.EnqueueSnapshot(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to enqueue inventory snapshot")
	}
}
