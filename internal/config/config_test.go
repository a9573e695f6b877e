package config

import (
	"os"
	"path/filepath"
	"testing"

	"oncestock/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: oncestock
database:
  path: "test.db"
api:
  enabled: true
  auth:
    enabled: true
    api_keys:
      - key: "secret"
        name: "pos-terminal"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default api port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Name != "pos-terminal" {
		t.Errorf("expected one api key for pos-terminal")
	}
	if cfg.API.RateLimit.Requests != models.RateLimitRequests {
		t.Errorf("expected default rate limit requests %d, got %d", models.RateLimitRequests, cfg.API.RateLimit.Requests)
	}
	if cfg.API.RateLimit.WindowSeconds != models.RateLimitWindow {
		t.Errorf("expected default rate limit window %d, got %d", models.RateLimitWindow, cfg.API.RateLimit.WindowSeconds)
	}
}

func TestLoadConfigStockDBOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("database:\n  path: from-config.db\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv("STOCK_DB", "/tmp/override/inventario.db")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "/tmp/override/inventario.db" {
		t.Errorf("expected STOCK_DB to win, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "inventario.db"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "alerts enabled without token",
			cfg: Config{
				Database: DatabaseConfig{Path: "inventario.db"},
				Alerts:   AlertsConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "empty api key",
			cfg: Config{
				Database: DatabaseConfig{Path: "inventario.db"},
				API: APIConfig{Auth: APIAuthConfig{
					Enabled: true,
					APIKeys: []APIClientKey{{Name: "bad"}},
				}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSeedProducts(t *testing.T) {
	ok := []models.Product{
		{Code: "94319699", Name: "billy"},
		{Code: "56070724", Name: "evan"},
	}
	if err := ValidateSeedProducts(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := []models.Product{
		{Code: "94319699", Name: "billy"},
		{Code: "94319699", Name: "copy"},
	}
	if err := ValidateSeedProducts(dup); err == nil {
		t.Error("expected duplicate code error")
	}

	empty := []models.Product{{Name: "nameless"}}
	if err := ValidateSeedProducts(empty); err == nil {
		t.Error("expected empty code error")
	}
}
