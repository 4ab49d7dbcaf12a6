package sendgrid_test

import (
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/pkg/sendgrid"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(status models.OrderStatus) models.Order {
	return models.Order{
		ID:        uuid.MustParse("1a2b3c4d-5e6f-4a5b-9c8d-7e6f5a4b3c2d"),
		UserEmail: "buyer@example.com",
		UserName:  "Rahim <b>",
		Status:    status,
		Items: []models.CartItem{
			{ProductID: uuid.New(), Name: "Tea & Biscuits", Price: decimal.RequireFromString("2.50"), Quantity: 2},
		},
		Total:        decimal.NewFromInt(5),
		DeliveryInfo: &models.DeliveryInfo{Phone: "017", Address: "House 1", City: "Dhaka", Postcode: "1200"},
	}
}

func TestOrderPlacedEmail(t *testing.T) {

	t.Run("Pending order receipt", func(t *testing.T) {
		req, err := sendgrid.OrderPlacedEmail(testOrder(models.OrderStatusPending))

		require.NoError(t, err)
		assert.Equal(t, "buyer@example.com", req.To)
		assert.Equal(t, "Order 1A2B3C4D received", req.Subject)
		assert.Contains(t, req.Content, "Hi Rahim <b>,")
		assert.Contains(t, req.Content, "- Tea & Biscuits x2: 5.00")
		assert.Contains(t, req.Content, "Total: 5.00")
		assert.Contains(t, req.Content, "Delivering to House 1, Dhaka 1200 (017)")
		assert.Contains(t, req.HTMLContent, "Rahim &lt;b&gt;")
		assert.Contains(t, req.HTMLContent, "Tea &amp; Biscuits")
		assert.Equal(t, []string{sendgrid.CategoryOrder}, req.Categories)
		assert.Equal(t, "1a2b3c4d-5e6f-4a5b-9c8d-7e6f5a4b3c2d", req.OrderID)
	})

	t.Run("Paid order without delivery details", func(t *testing.T) {
		order := testOrder(models.OrderStatusPaid)
		order.DeliveryInfo = nil

		req, err := sendgrid.OrderPlacedEmail(order)

		require.NoError(t, err)
		assert.Equal(t, "Payment received for order 1A2B3C4D", req.Subject)
		assert.NotContains(t, req.Content, "Delivering to")
	})
}

func TestDeliveryConfirmedEmail(t *testing.T) {
	req, err := sendgrid.DeliveryConfirmedEmail(testOrder(models.OrderStatusDelivered))

	require.NoError(t, err)
	assert.Equal(t, "Order 1A2B3C4D delivered", req.Subject)
	assert.Contains(t, req.Content, "1a2b3c4d-5e6f-4a5b-9c8d-7e6f5a4b3c2d is marked as delivered")
	assert.Contains(t, req.HTMLContent, "<code>1a2b3c4d-5e6f-4a5b-9c8d-7e6f5a4b3c2d</code>")
	assert.Equal(t, []string{sendgrid.CategoryDelivery}, req.Categories)
}
