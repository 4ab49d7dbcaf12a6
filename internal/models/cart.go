package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxItemQuantity is the most units of one product a cart line may hold.
const MaxItemQuantity = 99

// CartItem is a product snapshot taken when the product was added, plus the
// requested quantity.
type CartItem struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Quantity    int             `json:"quantity" validate:"min=1,max=99"`
}

func NewCartItem(product *Product) CartItem {
	return CartItem{
		ProductID:   product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
		Quantity:    1,
	}
}

// Subtotal is price × quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *CartItem) Validate() error {
	if err := validateStruct(i); err != nil {
		return err
	}

	if i.Price.IsNegative() {
		return fieldError("price", "must not be negative")
	}

	return nil
}

// ValidateItems checks every line of a cart before it is stored or loaded.
func ValidateItems(items []CartItem) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// CartTotal sums price × quantity over items.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero

	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return total
}

// CloneItems returns a copy that shares no backing array with items.
func CloneItems(items []CartItem) []CartItem {
	cloned := make([]CartItem, len(items))
	copy(cloned, items)

	return cloned
}

type Cart struct {
	UserID uuid.UUID       `json:"user_id"`
	Items  []CartItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// CartSnapshot is the state of a cart at one point in time. Orders are built
// from snapshots, never from the live cart.
type CartSnapshot struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func NewCartSnapshot(items []CartItem) CartSnapshot {
	cloned := CloneItems(items)

	return CartSnapshot{Items: cloned, Total: CartTotal(cloned)}
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"max=99"`
}
