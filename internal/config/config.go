package config

import (
	"errors"
	"fmt"
	"os"

	"oncestock/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
	Seed       SeedConfig       `yaml:"seed"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

// APIRateLimitConfig carries both shapes of throttling: a shared per-client
// budget over a window (counted in the cache) and the in-process token
// bucket used when no cache is reachable.
type APIRateLimitConfig struct {
	RPS           float64 `yaml:"rps"`
	Burst         int     `yaml:"burst"`
	Requests      int     `yaml:"requests"`
	WindowSeconds int     `yaml:"window_seconds"`
}

// AlertsConfig drives low-stock notifications over Telegram.
type AlertsConfig struct {
	Enabled  bool    `yaml:"enabled"`
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
}

type GoogleConfig struct {
	CredentialsFile        string `yaml:"credentials_file"`
	InventorySpreadsheetID string `yaml:"inventory_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// SeedConfig points at the initial product catalog inserted on first run.
type SeedConfig struct {
	ProductsFile string `yaml:"products_file"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; when present it feeds the ${VAR} expansion below.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Alerts.Enabled && c.Alerts.BotToken == "" {
		return errors.New("alerts.bot_token is required when alerts are enabled")
	}

	if c.API.Auth.Enabled {
		for _, k := range c.API.Auth.APIKeys {
			if k.Key == "" {
				return fmt.Errorf("api key for client %q is empty", k.Name)
			}
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	// STOCK_DB wins over the config file, matching the original tool.
	if env := os.Getenv("STOCK_DB"); env != "" {
		c.Database.Path = env
	}
	if c.Database.Path == "" {
		c.Database.Path = "inventario.db"
	}

	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = float64(models.RateLimitRequests) / float64(models.RateLimitWindow)
	}
	if c.API.RateLimit.Requests == 0 {
		c.API.RateLimit.Requests = models.RateLimitRequests
	}
	if c.API.RateLimit.WindowSeconds == 0 {
		c.API.RateLimit.WindowSeconds = models.RateLimitWindow
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Seed.ProductsFile == "" {
		c.Seed.ProductsFile = "configs/products.yaml"
	}
}

// ValidateSeedProducts rejects catalogs with duplicate or empty codes before
// they reach the database.
func ValidateSeedProducts(products []models.Product) error {
	codes := make(map[string]bool)
	for _, p := range products {
		if p.Code == "" {
			return fmt.Errorf("seed product %q has empty code", p.Name)
		}
		if codes[p.Code] {
			return fmt.Errorf("duplicate seed product code: %s", p.Code)
		}
		codes[p.Code] = true
	}
	return nil
}
