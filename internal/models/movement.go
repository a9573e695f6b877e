package models

import "time"

type Movement struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Type      string    `json:"type"`
	Quantity  int64     `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Denormalized product fields, filled when listing with a join.
	ProductCode string `json:"product_code,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

// Delta returns the signed stock change the movement applies.
func (m *Movement) Delta() int64 {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}
