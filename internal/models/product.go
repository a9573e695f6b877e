package models

import "time"

type Product struct {
	ID        int64     `yaml:"id" json:"id"`
	Code      string    `yaml:"code" json:"code"`
	Name      string    `yaml:"name" json:"name"`
	Price     float64   `yaml:"price" json:"price"`
	Stock     int64     `yaml:"stock" json:"stock"`
	Barcode   string    `yaml:"barcode" json:"barcode,omitempty"`
	MinStock  int64     `yaml:"min_stock" json:"min_stock"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// BelowMinimum reports whether the product is at or under its alert threshold.
// A zero MinStock disables alerting for the product.
func (p *Product) BelowMinimum() bool {
	return p.MinStock > 0 && p.Stock <= p.MinStock
}
