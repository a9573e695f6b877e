package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"oncestock/internal/database"
	"oncestock/internal/metrics"
	"oncestock/internal/models"
)

type productRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int64   `json:"stock"`
	Barcode  string  `json:"barcode"`
	MinStock int64   `json:"min_stock"`
}

func (s *HTTPServer) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProducts(w, r)
	case http.MethodPost:
		s.createProduct(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listProducts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("products_list")

	filter := strings.TrimSpace(r.URL.Query().Get("q"))
	products, err := s.products.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *HTTPServer) createProduct(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("products_create")

	var body productRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	product := &models.Product{
		Code:     body.Code,
		Name:     body.Name,
		Price:    body.Price,
		Stock:    body.Stock,
		Barcode:  body.Barcode,
		MinStock: body.MinStock,
	}

	if err := s.products.Create(r.Context(), product); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *HTTPServer) handleProductByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/products/"
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	if idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getProduct(w, r, id)
	case http.MethodPut:
		s.updateProduct(w, r, id)
	case http.MethodDelete:
		s.deleteProduct(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getProduct(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("products_get")

	product, err := s.products.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *HTTPServer) updateProduct(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("products_update")

	var body productRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	product := &models.Product{
		ID:       id,
		Code:     body.Code,
		Name:     body.Name,
		Price:    body.Price,
		Stock:    body.Stock,
		Barcode:  body.Barcode,
		MinStock: body.MinStock,
	}

	if err := s.products.Update(r.Context(), product); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *HTTPServer) deleteProduct(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("products_delete")

	if err := s.products.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("products_lookup")

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	product, err := s.products.GetByCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *HTTPServer) handleMovements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMovements(w, r)
	case http.MethodPost:
		s.applyMovement(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listMovements(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("movements_list")

	var productID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid product_id")
			return
		}
		productID = id
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	movements, err := s.stock.Movements(r.Context(), productID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list movements")
		return
	}
	if movements == nil {
		movements = []models.Movement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (s *HTTPServer) applyMovement(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("movements_apply")

	var body struct {
		ProductID int64   `json:"product_id"`
		Type      string  `json:"type"`
		Quantity  int64   `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
		Note      string  `json:"note"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	product, err := s.stock.Apply(r.Context(), body.ProductID, body.Type, body.Quantity, body.UnitPrice, body.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *HTTPServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("scan")

	var body struct {
		Code     string `json:"code"`
		Type     string `json:"type"`
		Quantity int64  `json:"quantity"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(body.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if body.Type == "" {
		body.Type = models.MovementOut
	}

	product, err := s.stock.Scan(r.Context(), body.Code, body.Type, body.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("export")

	var body struct {
		Filter string `json:"filter"`
		Format string `json:"format"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	path, err := s.exporter.ExportToDir(r.Context(), body.Filter, s.exportDir, body.Format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	metrics.IncExport()
	writeJSON(w, http.StatusOK, map[string]string{"file_path": path})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeDomainError maps store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, database.ErrDuplicateCode):
		writeError(w, http.StatusConflict, "product code or barcode already exists")
	case errors.Is(err, database.ErrEmptyProductCode),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidPrice),
		errors.Is(err, database.ErrInvalidMoveType):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
