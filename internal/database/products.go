package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"oncestock/internal/models"

	"github.com/mattn/go-sqlite3"
)

const productColumns = `id, code, name, price, stock, barcode, min_stock, created_at, updated_at`

func (db *DB) CreateProduct(ctx context.Context, product *models.Product) error {
	product.Code = strings.TrimSpace(product.Code)
	product.Name = strings.TrimSpace(product.Name)
	if product.Code == "" || product.Name == "" {
		return ErrEmptyProductCode
	}

	query := `INSERT INTO products (code, name, price, stock, barcode, min_stock, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		product.Code,
		product.Name,
		product.Price,
		product.Stock,
		nullIfEmpty(product.Barcode),
		product.MinStock,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", mapConstraintError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now

	return nil
}

func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	return db.scanProduct(db.QueryRowContext(ctx, query, id))
}

// GetProductByCode resolves a product by its code or barcode; the scan entry
// in the original tool accepts both.
func (db *DB) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE code = ? OR barcode = ?`
	return db.scanProduct(db.QueryRowContext(ctx, query, code, code))
}

// ListProducts returns products matching the filter against code or name,
// ordered by name case-insensitively. An empty filter returns everything.
func (db *DB) ListProducts(ctx context.Context, filter string) ([]models.Product, error) {
	filter = strings.TrimSpace(filter)
	query := `SELECT ` + productColumns + `
              FROM products
              WHERE (? = '' OR code LIKE ? OR name LIKE ?)
              ORDER BY name COLLATE NOCASE`
	like := "%" + filter + "%"

	rows, err := db.QueryContext(ctx, query, filter, like, like)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := db.scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func (db *DB) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.Code = strings.TrimSpace(product.Code)
	product.Name = strings.TrimSpace(product.Name)
	if product.Code == "" || product.Name == "" {
		return ErrEmptyProductCode
	}

	query := `UPDATE products
              SET code = ?, name = ?, price = ?, stock = ?, barcode = ?, min_stock = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		product.Code,
		product.Name,
		product.Price,
		product.Stock,
		nullIfEmpty(product.Barcode),
		product.MinStock,
		now,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", mapConstraintError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	product.UpdatedAt = now
	return nil
}

// DeleteProduct removes a product; its movements go with it via the cascade.
func (db *DB) DeleteProduct(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// LowStockProducts returns active alert candidates: stock at or under a
// non-zero min_stock.
func (db *DB) LowStockProducts(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
              FROM products
              WHERE min_stock > 0 AND stock <= min_stock
              ORDER BY name COLLATE NOCASE`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := db.scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate low stock products: %w", err)
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanProduct(row *sql.Row) (*models.Product, error) {
	product, err := db.scanProductFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (db *DB) scanProductRow(rows *sql.Rows) (*models.Product, error) {
	return db.scanProductFrom(rows)
}

func (db *DB) scanProductFrom(scanner rowScanner) (*models.Product, error) {
	var product models.Product
	var barcode sql.NullString
	err := scanner.Scan(
		&product.ID,
		&product.Code,
		&product.Name,
		&product.Price,
		&product.Stock,
		&barcode,
		&product.MinStock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	product.Barcode = barcode.String
	return &product, nil
}

// nullIfEmpty keeps the barcode UNIQUE index usable: SQLite treats NULLs as
// distinct, empty strings as equal.
func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			return ErrDuplicateCode
		case sqlite3.ErrConstraintForeignKey:
			// A movement pointing at a missing product trips the FK, not a
			// zero-row update.
			return ErrProductNotFound
		}
	}
	return err
}
