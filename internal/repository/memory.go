package repository

import (
	"context"
	"sync"
	"time"

	"oncestock/internal/models"
)

// MemoryCacheRepository is the single-process fallback when redis is not
// configured or unreachable.
type MemoryCacheRepository struct {
	products   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type productEntry struct {
	product   *models.Product
	expiresAt time.Time
}

func NewMemoryCacheRepository(ttl time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{
		ttl: ttl,
	}
}

func (r *MemoryCacheRepository) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	val, ok := r.products.Load(code)
	if !ok {
		return nil, nil
	}
	entry := val.(*productEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.products.Delete(code)
		return nil, nil
	}
	return entry.product, nil
}

func (r *MemoryCacheRepository) SetProduct(ctx context.Context, product *models.Product) error {
	r.products.Store(product.Code, &productEntry{
		product:   product,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryCacheRepository) InvalidateProduct(ctx context.Context, code string) error {
	r.products.Delete(code)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCacheRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(clientKey)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(clientKey, entry)
	return entry.count <= limit, nil
}
