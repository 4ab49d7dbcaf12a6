package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusPaid       OrderStatus = "paid"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered, OrderStatusPaid:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// Next returns the status an administrator may advance s to.
// delivered and paid are terminal.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusProcessing, true
	case OrderStatusProcessing:
		return OrderStatusDelivered, true
	}
	return "", false
}

// CanTransitionTo reports whether an administrator may move an order from s to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

type DeliveryInfo struct {
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
}

// Normalize trims every field, fills city and postcode from the defaults when
// left empty and rejects a missing phone or address.
func (d *DeliveryInfo) Normalize(defaultCity, defaultPostcode string) error {
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.Postcode = strings.TrimSpace(d.Postcode)

	if d.City == "" {
		d.City = defaultCity
	}
	if d.Postcode == "" {
		d.Postcode = defaultPostcode
	}

	return validateStruct(d)
}

type Order struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id" validate:"required"`
	UserEmail           string          `json:"user_email" validate:"required,email"`
	UserName            string          `json:"user_name"`
	Items               []CartItem      `json:"items" validate:"required,min=1,dive"`
	Total               decimal.Decimal `json:"total"`
	Status              OrderStatus     `json:"status" validate:"required"`
	DeliveryInfo        *DeliveryInfo   `json:"delivery_info,omitempty"`
	ConfirmedDelivery   bool            `json:"confirmed_delivery"`
	DeliveryConfirmedAt *time.Time      `json:"delivery_confirmed_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Validate checks a new order before it is persisted.
func (o *Order) Validate() error {
	if err := validateStruct(o); err != nil {
		return err
	}

	if !o.Status.IsValid() {
		return fieldError("status", "unknown order status")
	}

	for i := range o.Items {
		if err := o.Items[i].Validate(); err != nil {
			return err
		}
	}

	if !o.Total.Equal(CartTotal(o.Items)) {
		return fieldError("total", "does not match the order items")
	}

	if o.ConfirmedDelivery && o.Status != OrderStatusDelivered {
		return fieldError("confirmed_delivery", "requires a delivered order")
	}

	return nil
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

type CreateOrderRequest struct {
	DeliveryInfo DeliveryInfo `json:"delivery_info"`
}

type AdvanceOrderStatusRequest struct {
	CurrentStatus OrderStatus `json:"current_status" validate:"required,oneof=pending processing delivered paid"`
}
