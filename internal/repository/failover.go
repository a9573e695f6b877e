package repository

import (
	"context"
	"sync/atomic"
	"time"

	"oncestock/internal/domain"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
)

// FailoverCacheRepository serves from the primary (redis) until it errors,
// then switches to the fallback (memory) and probes the primary again after
// a minute.
type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	if !r.isDown.Load() {
		product, err := r.primary.GetProduct(ctx, code)
		if err == nil {
			return product, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		product, err := r.primary.GetProduct(ctx, code)
		if err == nil {
			r.isDown.Store(false)
			return product, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetProduct(ctx, code)
}

func (r *FailoverCacheRepository) SetProduct(ctx context.Context, product *models.Product) error {
	if !r.isDown.Load() {
		err := r.primary.SetProduct(ctx, product)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetProduct(ctx, product)
}

func (r *FailoverCacheRepository) InvalidateProduct(ctx context.Context, code string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateProduct(ctx, code)
		if err == nil {
			// Keep both tiers coherent; the fallback may hold a stale copy.
			return r.fallback.InvalidateProduct(ctx, code)
		}
		r.markDown(err)
	}

	return r.fallback.InvalidateProduct(ctx, code)
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientKey, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, clientKey, limit, window)
}

func (r *FailoverCacheRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary cache repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}
