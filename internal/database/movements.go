package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"oncestock/internal/models"
)

// ApplyMovement records a stock movement and adjusts the product balance in
// one transaction. IN adds, OUT subtracts; the original tool does not clamp
// at zero, so stock may go negative. Returns the product after the change.
func (db *DB) ApplyMovement(ctx context.Context, movement *models.Movement) (*models.Product, error) {
	if movement.Type != models.MovementIn && movement.Type != models.MovementOut {
		return nil, ErrInvalidMoveType
	}
	if movement.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if movement.UnitPrice < 0 {
		return nil, ErrInvalidPrice
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO movements (product_id, type, quantity, unit_price, note, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		movement.ProductID,
		movement.Type,
		movement.Quantity,
		movement.UnitPrice,
		nullIfEmpty(movement.Note),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert movement: %w", mapConstraintError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	updateResult, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		movement.Delta(), now, movement.ProductID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	affected, err := updateResult.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrProductNotFound
	}

	var product models.Product
	var barcode sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, movement.ProductID,
	).Scan(
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
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	product.Barcode = barcode.String

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit movement: %w", err)
	}

	movement.ID = id
	movement.CreatedAt = now
	movement.ProductCode = product.Code
	movement.ProductName = product.Name
	return &product, nil
}

// ListMovements returns movements newest first, joined with product code and
// name. A zero productID means all products. The limit defaults to
// DefaultMovementLimit and is capped at MaxMovementLimit.
func (db *DB) ListMovements(ctx context.Context, productID int64, limit int) ([]models.Movement, error) {
	if limit <= 0 {
		limit = models.DefaultMovementLimit
	}
	if limit > models.MaxMovementLimit {
		limit = models.MaxMovementLimit
	}

	query := `SELECT m.id, m.product_id, p.code, p.name, m.type, m.quantity, m.unit_price, m.note, m.created_at
              FROM movements m
              JOIN products p ON p.id = m.product_id
              WHERE (? = 0 OR m.product_id = ?)
              ORDER BY m.id DESC
              LIMIT ?`

	rows, err := db.QueryContext(ctx, query, productID, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	var movements []models.Movement
	for rows.Next() {
		var m models.Movement
		var note sql.NullString
		err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.ProductCode,
			&m.ProductName,
			&m.Type,
			&m.Quantity,
			&m.UnitPrice,
			&note,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Note = note.String
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movements: %w", err)
	}
	return movements, nil
}

// CountMovements is used by the movements sheet of the Excel export.
func (db *DB) CountMovements(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movements WHERE (? = 0 OR product_id = ?)`,
		productID, productID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}
	return count, nil
}
