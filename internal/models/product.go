package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxPrice is the first price that no longer fits the catalog's NUMERIC(12,2)
// column.
var MaxPrice = decimal.New(1, 10)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url" validate:"required,url"`
}

// Validate checks a product before it is written to the catalog.
func (p *Product) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}

	if p.Price.IsNegative() {
		return fieldError("price", "must not be negative")
	}

	if !p.Price.Equal(p.Price.Round(2)) {
		return fieldError("price", "must have at most 2 decimal places")
	}

	if p.Price.GreaterThanOrEqual(MaxPrice) {
		return fieldError("price", "must be less than "+MaxPrice.String())
	}

	return nil
}
