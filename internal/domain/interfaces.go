package domain

import (
	"context"
	"time"

	"oncestock/internal/models"
)

type Repository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context, filter string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	CountProducts(ctx context.Context) (int64, error)
	LowStockProducts(ctx context.Context) ([]models.Product, error)

	ApplyMovement(ctx context.Context, movement *models.Movement) (*models.Product, error)
	ListMovements(ctx context.Context, productID int64, limit int) ([]models.Movement, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// CacheRepository backs the scan fast path: product lookups by code plus
// per-client rate limit counters.
type CacheRepository interface {
	GetProduct(ctx context.Context, code string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	InvalidateProduct(ctx context.Context, code string) error
	CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error)
}

type ProductService interface {
	Create(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, id int64) (*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	List(ctx context.Context, filter string) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
}

type StockService interface {
	Apply(ctx context.Context, productID int64, movementType string, quantity int64, unitPrice float64, note string) (*models.Product, error)
	Scan(ctx context.Context, code string, movementType string, quantity int64) (*models.Product, error)
	Movements(ctx context.Context, productID int64, limit int) ([]models.Movement, error)
}

type Exporter interface {
	ExportProducts(ctx context.Context, filter string, path string) error
	ExportProductsCSV(ctx context.Context, filter string, path string) error
	ExportToDir(ctx context.Context, filter, dir, format string) (string, error)
}

// SheetsWriter mirrors the inventory into a spreadsheet the owner can share.
type SheetsWriter interface {
	ReplaceInventorySheet(ctx context.Context, products []models.Product) error
	AppendMovement(ctx context.Context, movement *models.Movement) error
}

type SyncWorker interface {
	EnqueueSnapshot(ctx context.Context) error
	EnqueueMovement(ctx context.Context, movement *models.Movement) error
}

// Notifier delivers low-stock alerts.
type Notifier interface {
	NotifyLowStock(ctx context.Context, product *models.Product) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
