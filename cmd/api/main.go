package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"oncestock/internal/api"
	"oncestock/internal/config"
	"oncestock/internal/database"
	"oncestock/internal/events"
	"oncestock/internal/export"
	"oncestock/internal/google"
	"oncestock/internal/logging"
	"oncestock/internal/metrics"
	"oncestock/internal/models"
	"oncestock/internal/notify"
	"oncestock/internal/repository"
	"oncestock/internal/service"
	"oncestock/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg); err != nil {
		return err
	}

	seedProducts, err := loadSeedProducts(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, seedProducts, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initCache(redisClient, &logger)

	sheetsService := initGoogleSheets(cfg, &logger)

	var syncWorker *worker.SyncWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		syncWorker = worker.NewSyncWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go syncWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeAlerts(cfg, eventBus, &logger)

	var productService *service.ProductService
	var stockService *service.StockService
	if syncWorker != nil {
		productService = service.NewProductService(db, cache, eventBus, syncWorker, &logger)
		stockService = service.NewStockService(db, cache, eventBus, syncWorker, &logger)
	} else {
		productService = service.NewProductService(db, cache, eventBus, nil, &logger)
		stockService = service.NewStockService(db, cache, eventBus, nil, &logger)
	}

	exporter := export.NewExporter(db, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, stockService, &logger)

	httpServer := api.NewHTTPServer(cfg.API, productService, stockService, exporter, cfg.Exports.Path, cache, &logger)
	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config) error {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		return fmt.Errorf("create exports directory: %w", err)
	}
	return nil
}

// loadSeedProducts reads the initial catalog; missing file just means an
// empty database on first run.
func loadSeedProducts(cfg *config.Config, logger *zerolog.Logger) ([]models.Product, error) {
	data, err := os.ReadFile(cfg.Seed.ProductsFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info().Str("products_file", cfg.Seed.ProductsFile).Msg("no seed catalog, starting empty")
			return nil, nil
		}
		return nil, fmt.Errorf("read seed products: %w", err)
	}

	var seed struct {
		Products []models.Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed products: %w", err)
	}

	if err := config.ValidateSeedProducts(seed.Products); err != nil {
		return nil, fmt.Errorf("seed products validation: %w", err)
	}
	return seed.Products, nil
}

func initDatabase(cfg *config.Config, seed []models.Product, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := db.SeedProducts(context.Background(), seed); err != nil {
		logger.Error().Err(err).Msg("seed products")
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initCache(redisClient *redis.Client, logger *zerolog.Logger) *repository.FailoverCacheRepository {
	ttl := time.Duration(models.ProductCacheTTL) * time.Second
	primary := repository.NewRedisCacheRepository(redisClient, ttl)
	fallback := repository.NewMemoryCacheRepository(ttl)
	return repository.NewFailoverCacheRepository(primary, fallback, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.InventorySpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.InventorySpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	if err := sheetsService.TestConnection(context.Background()); err != nil {
		// The usual cause is the spreadsheet not being shared with the
		// service account, so surface its email.
		event := logger.Warn().Err(err)
		if email, emailErr := sheetsService.GetServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
			event = event.Str("service_account", email)
		}
		event.Msg("google sheets connection test failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func subscribeAlerts(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Alerts.Enabled {
		return
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Alerts, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram alerts init failed, continuing without alerts")
		return
	}
	bus.Subscribe(events.EventLowStock, notifier.LowStockHandler())
}

func startMetrics(ctx context.Context, cfg *config.Config, stockService *service.StockService, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)

	// Keep the low-stock gauge fresh even when nothing moves.
	go func() {
		stockService.RefreshLowStockGauge(ctx)
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stockService.RefreshLowStockGauge(ctx)
			}
		}
	}()
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
