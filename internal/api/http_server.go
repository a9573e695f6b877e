package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"oncestock/internal/config"
	"oncestock/internal/domain"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the inventory over a small JSON API so POS terminals
// and scanners on the local network can share one database.
type HTTPServer struct {
	cfg       config.APIConfig
	products  domain.ProductService
	stock     domain.StockService
	exporter  domain.Exporter
	exportDir string
	logger    *zerolog.Logger
	server    *http.Server
	auth      *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	products domain.ProductService,
	stock domain.StockService,
	exporter domain.Exporter,
	exportDir string,
	cache domain.CacheRepository,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		products:  products,
		stock:     stock,
		exporter:  exporter,
		exportDir: exportDir,
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(cfg, cache)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler builds the full middleware chain; split out so tests can drive it
// with httptest.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/products", s.handleProducts)
	mux.HandleFunc("/api/v1/products/", s.handleProductByID)
	mux.HandleFunc("/api/v1/lookup", s.handleLookup)
	mux.HandleFunc("/api/v1/movements", s.handleMovements)
	mux.HandleFunc("/api/v1/scan", s.handleScan)
	mux.HandleFunc("/api/v1/export", s.handleExport)
	mux.HandleFunc("/healthz", s.handleHealth)

	return s.loggingMiddleware(s.auth.Wrap(mux))
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
