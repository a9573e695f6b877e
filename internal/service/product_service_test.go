package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"oncestock/internal/database"
	"oncestock/internal/events"
	"oncestock/internal/models"
	"oncestock/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncWorker struct {
	mu        sync.Mutex
	snapshots int
	movements []models.Movement
}

func (f *fakeSyncWorker) EnqueueSnapshot(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return nil
}

func (f *fakeSyncWorker) EnqueueMovement(ctx context.Context, movement *models.Movement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, *movement)
	return nil
}

func setupProductService(t *testing.T) (*ProductService, *database.DB, *repository.MemoryCacheRepository, *fakeSyncWorker, *events.EventBus) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := repository.NewMemoryCacheRepository(time.Minute)
	bus := events.NewEventBus()
	syncWorker := &fakeSyncWorker{}

	return NewProductService(db, cache, bus, syncWorker, &logger), db, cache, syncWorker, bus
}

func TestProductServiceCreate(t *testing.T) {
	svc, _, _, syncWorker, bus := setupProductService(t)
	ctx := context.Background()

	var published []string
	bus.Subscribe(events.EventProductCreated, func(event *events.Event) error {
		published = append(published, event.Type)
		return nil
	})

	product := &models.Product{Code: "94319699", Name: "Milanesa", Price: 1600, Stock: 10}
	require.NoError(t, svc.Create(ctx, product))

	assert.NotZero(t, product.ID)
	assert.Equal(t, []string{events.EventProductCreated}, published)
	assert.Equal(t, 1, syncWorker.snapshots)
}

func TestProductServiceGetByCodeCachesResult(t *testing.T) {
	svc, db, cache, _, _ := setupProductService(t)
	ctx := context.Background()

	product := &models.Product{Code: "94319699", Name: "Milanesa", Price: 1600, Stock: 10}
	require.NoError(t, db.CreateProduct(ctx, product))

	got, err := svc.GetByCode(ctx, "94319699")
	require.NoError(t, err)
	assert.Equal(t, "Milanesa", got.Name)

	cached, err := cache.GetProduct(ctx, "94319699")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Milanesa", cached.Name)
}

func TestProductServiceUpdateInvalidatesCache(t *testing.T) {
	svc, db, cache, _, _ := setupProductService(t)
	ctx := context.Background()

	product := &models.Product{Code: "94319699", Name: "Milanesa", Price: 1600, Stock: 10, Barcode: "779123456"}
	require.NoError(t, db.CreateProduct(ctx, product))

	_, err := svc.GetByCode(ctx, "94319699")
	require.NoError(t, err)

	product.Name = "Milanesa de pollo"
	require.NoError(t, svc.Update(ctx, product))

	stale, err := cache.GetProduct(ctx, "94319699")
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestProductServiceDelete(t *testing.T) {
	svc, db, _, syncWorker, _ := setupProductService(t)
	ctx := context.Background()

	product := &models.Product{Code: "94319699", Name: "Milanesa", Price: 1600, Stock: 10}
	require.NoError(t, db.CreateProduct(ctx, product))

	require.NoError(t, svc.Delete(ctx, product.ID))

	_, err := db.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, database.ErrProductNotFound)
	assert.Equal(t, 1, syncWorker.snapshots)
}

func TestProductServiceDeleteNotFound(t *testing.T) {
	svc, _, _, _, _ := setupProductService(t)

	err := svc.Delete(context.Background(), 12345)
	assert.ErrorIs(t, err, database.ErrProductNotFound)
}
