package service_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repoMocks "github.com/aaravmahajanofficial/storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)

var checkoutDefaults = config.Checkout{DefaultCity: "Dhaka", DefaultPostcode: "1200", Currency: "bdt"}

func newOrderService(t *testing.T) (service.OrderService, *repoMocks.OrderRepository, *mocks.NotificationService) {
	t.Helper()

	repo := new(repoMocks.OrderRepository)
	notifier := new(mocks.NotificationService)
	notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Maybe()
	notifier.On("NotifyDeliveryConfirmed", mock.Anything, mock.Anything).Maybe()

	svc := service.NewOrderServiceWithClock(repo, notifier, checkoutDefaults, func() time.Time { return fixedNow })

	return svc, repo, notifier
}

func cartWith(t *testing.T, identity *models.Identity, products ...*models.Product) *service.CartManager {
	t.Helper()

	manager := service.NewCartManager(newMemoryCartRepo(), &recordingPersister{})
	manager.OnSessionChanged(context.Background(), identity)
	for _, p := range products {
		manager.AddToCart(context.Background(), p)
	}

	return manager
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - pending order from cart snapshot", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		b := newProduct("b", 5)
		cart := cartWith(t, identity, newProduct("a", 10), b, b)

		repo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()

		order, err := svc.CreateOrder(ctx, identity, cart, &models.DeliveryInfo{Phone: " 01700000000 ", Address: "House 1, Road 2"})

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.True(t, decimal.NewFromInt(20).Equal(order.Total))
		assert.Len(t, order.Items, 2)
		assert.Equal(t, identity.UserID, order.UserID)
		assert.Equal(t, "buyer@example.com", order.UserEmail)
		assert.Equal(t, "Buyer", order.UserName)
		assert.False(t, order.ConfirmedDelivery)
		assert.Nil(t, order.DeliveryConfirmedAt)
		require.NotNil(t, order.DeliveryInfo)
		assert.Equal(t, "01700000000", order.DeliveryInfo.Phone)
		assert.Equal(t, "Dhaka", order.DeliveryInfo.City)
		assert.Equal(t, "1200", order.DeliveryInfo.Postcode)
		assert.Equal(t, fixedNow, order.CreatedAt)

		assert.Empty(t, cart.Items(), "cart is cleared after the order is stored")
		repo.AssertExpectations(t)
	})

	t.Run("Later cart changes do not reach the order", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		a := newProduct("a", 10)
		b := newProduct("b", 5)
		cart := cartWith(t, identity, a, b)

		var stored *models.Order
		repo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Order) }).
			Return(nil).Once()

		order, err := svc.CreateOrder(ctx, identity, cart, &models.DeliveryInfo{Phone: "1", Address: "2"})
		require.NoError(t, err)
		itemsAtPlacement := models.CloneItems(order.Items)

		require.NoError(t, cart.AddToCart(ctx, a))
		require.NoError(t, cart.AddToCart(ctx, a))
		require.NoError(t, cart.UpdateQuantity(ctx, a.ID, 7))
		require.NoError(t, cart.AddToCart(ctx, newProduct("c", 99)))

		assert.Equal(t, itemsAtPlacement, order.Items)
		assert.True(t, decimal.NewFromInt(15).Equal(order.Total))
		require.Same(t, order, stored)
		assert.Len(t, stored.Items, 2)
		assert.True(t, decimal.NewFromInt(15).Equal(models.CartTotal(stored.Items)))
		assert.Len(t, cart.Items(), 2, "the live cart moved on independently")
	})

	t.Run("Name falls back to the email local part", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := &models.Identity{UserID: uuid.New(), Email: "rahim@example.com"}
		cart := cartWith(t, identity, newProduct("a", 10))

		repo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()

		order, err := svc.CreateOrder(ctx, identity, cart, &models.DeliveryInfo{Phone: "1", Address: "2", City: "Chittagong", Postcode: "4000"})

		require.NoError(t, err)
		assert.Equal(t, "rahim", order.UserName)
		assert.Equal(t, "Chittagong", order.DeliveryInfo.City)
		assert.Equal(t, "4000", order.DeliveryInfo.Postcode)
	})

	tests := []struct {
		name     string
		delivery *models.DeliveryInfo
	}{
		{name: "Missing phone", delivery: &models.DeliveryInfo{Address: "House 1"}},
		{name: "Blank address", delivery: &models.DeliveryInfo{Phone: "017", Address: "   "}},
		{name: "No delivery info", delivery: nil},
	}

	for _, tc := range tests {
		t.Run("Failure - "+tc.name, func(t *testing.T) {
			svc, repo, _ := newOrderService(t)
			identity := customer()
			cart := cartWith(t, identity, newProduct("a", 10))

			order, err := svc.CreateOrder(ctx, identity, cart, tc.delivery)

			assert.Nil(t, order)
			requireAppError(t, err, appErrors.ErrCodeValidation)
			assert.Len(t, cart.Items(), 1, "cart untouched")
			repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}

	t.Run("Failure - empty cart", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()

		order, err := svc.CreateOrder(ctx, identity, cartWith(t, identity), &models.DeliveryInfo{Phone: "1", Address: "2"})

		assert.Nil(t, order)
		requireAppError(t, err, appErrors.ErrCodeBadRequest)
		repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("Failure - not signed in", func(t *testing.T) {
		svc, _, _ := newOrderService(t)

		_, err := svc.CreateOrder(ctx, nil, cartWith(t, nil, newProduct("a", 1)), &models.DeliveryInfo{Phone: "1", Address: "2"})

		requireAppError(t, err, appErrors.ErrCodeUnauthorized)
	})

	t.Run("Failure - store error keeps the cart", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		cart := cartWith(t, identity, newProduct("a", 10))

		repo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(errors.New("insert failed")).Once()

		order, err := svc.CreateOrder(ctx, identity, cart, &models.DeliveryInfo{Phone: "1", Address: "2"})

		assert.Nil(t, order)
		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
		assert.Len(t, cart.Items(), 1)
	})
}

func TestOrderService_CreatePaidOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - paid order without delivery info", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		cart := cartWith(t, identity, newProduct("a", 10))

		repo.On("CreateOrder", ctx, mock.MatchedBy(func(o *models.Order) bool {
			return o.Status == models.OrderStatusPaid && o.DeliveryInfo == nil
		})).Return(nil).Once()

		order, err := svc.CreatePaidOrder(ctx, identity, cart)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, order.Status)
		assert.Nil(t, order.DeliveryInfo)
		assert.Empty(t, cart.Items())
		repo.AssertExpectations(t)
	})

	t.Run("Failure - empty cart", func(t *testing.T) {
		svc, _, _ := newOrderService(t)
		identity := customer()

		_, err := svc.CreatePaidOrder(ctx, identity, cartWith(t, identity))

		requireAppError(t, err, appErrors.ErrCodeBadRequest)
	})
}

func storedOrder(owner uuid.UUID, status models.OrderStatus) *models.Order {
	item := models.NewCartItem(newProduct("a", 10))
	return &models.Order{
		ID:        uuid.New(),
		UserID:    owner,
		UserEmail: "buyer@example.com",
		Items:     []models.CartItem{item},
		Total:     item.Subtotal(),
		Status:    status,
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Hour),
	}
}

func TestOrderService_AdvanceStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - pending to processing to delivered", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		order := storedOrder(uuid.New(), models.OrderStatusPending)

		processing := *order
		processing.Status = models.OrderStatusProcessing
		delivered := *order
		delivered.Status = models.OrderStatusDelivered

		repo.On("UpdateStatus", ctx, order.ID, models.OrderStatusPending, models.OrderStatusProcessing).Return(&processing, nil).Once()
		repo.On("UpdateStatus", ctx, order.ID, models.OrderStatusProcessing, models.OrderStatusDelivered).Return(&delivered, nil).Once()

		got, err := svc.AdvanceStatus(ctx, admin(), order.ID, models.OrderStatusPending)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, got.Status)

		got, err = svc.AdvanceStatus(ctx, admin(), order.ID, models.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusDelivered, got.Status)

		repo.AssertExpectations(t)
	})

	for _, status := range []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusPaid} {
		t.Run("Failure - terminal status "+status.String(), func(t *testing.T) {
			svc, repo, _ := newOrderService(t)

			_, err := svc.AdvanceStatus(ctx, admin(), uuid.New(), status)

			requireAppError(t, err, appErrors.ErrCodeConflict)
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("Failure - unknown status", func(t *testing.T) {
		svc, _, _ := newOrderService(t)

		_, err := svc.AdvanceStatus(ctx, admin(), uuid.New(), models.OrderStatus("shipped"))

		requireAppError(t, err, appErrors.ErrCodeValidation)
	})

	t.Run("Failure - customer", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)

		_, err := svc.AdvanceStatus(ctx, customer(), uuid.New(), models.OrderStatusPending)

		requireAppError(t, err, appErrors.ErrCodeForbidden)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - stored status moved on", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		order := storedOrder(uuid.New(), models.OrderStatusProcessing)

		repo.On("UpdateStatus", ctx, order.ID, models.OrderStatusPending, models.OrderStatusProcessing).Return(nil, sql.ErrNoRows).Once()
		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()

		_, err := svc.AdvanceStatus(ctx, admin(), order.ID, models.OrderStatusPending)

		requireAppError(t, err, appErrors.ErrCodeConflict)
		repo.AssertExpectations(t)
	})

	t.Run("Failure - order missing", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		id := uuid.New()

		repo.On("UpdateStatus", ctx, id, models.OrderStatusPending, models.OrderStatusProcessing).Return(nil, sql.ErrNoRows).Once()
		repo.On("GetOrderByID", ctx, id).Return(nil, sql.ErrNoRows).Once()

		_, err := svc.AdvanceStatus(ctx, admin(), id, models.OrderStatusPending)

		requireAppError(t, err, appErrors.ErrCodeNotFound)
	})
}

func TestOrderService_ConfirmDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner confirmation is timestamped", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		order := storedOrder(identity.UserID, models.OrderStatusProcessing)

		confirmed := *order
		confirmed.Status = models.OrderStatusDelivered
		confirmed.ConfirmedDelivery = true
		confirmed.DeliveryConfirmedAt = &fixedNow

		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()
		repo.On("ConfirmDelivery", ctx, order.ID, mock.MatchedBy(func(at *time.Time) bool {
			return at != nil && at.Equal(fixedNow)
		})).Return(&confirmed, nil).Once()

		got, err := svc.ConfirmDelivery(ctx, identity, order.ID)

		require.NoError(t, err)
		assert.True(t, got.ConfirmedDelivery)
		assert.Equal(t, models.OrderStatusDelivered, got.Status)
		require.NotNil(t, got.DeliveryConfirmedAt)
		repo.AssertExpectations(t)
	})

	t.Run("Admin confirmation has no timestamp", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		order := storedOrder(uuid.New(), models.OrderStatusPending)

		confirmed := *order
		confirmed.Status = models.OrderStatusDelivered
		confirmed.ConfirmedDelivery = true

		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()
		repo.On("ConfirmDelivery", ctx, order.ID, (*time.Time)(nil)).Return(&confirmed, nil).Once()

		got, err := svc.ConfirmDelivery(ctx, admin(), order.ID)

		require.NoError(t, err)
		assert.True(t, got.ConfirmedDelivery)
		assert.Nil(t, got.DeliveryConfirmedAt)
		repo.AssertExpectations(t)
	})

	t.Run("Second confirmation keeps the first timestamp", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		first := fixedNow.Add(-24 * time.Hour)
		order := storedOrder(identity.UserID, models.OrderStatusDelivered)
		order.ConfirmedDelivery = true
		order.DeliveryConfirmedAt = &first

		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()

		got, err := svc.ConfirmDelivery(ctx, identity, order.ID)

		require.NoError(t, err)
		assert.Equal(t, first, *got.DeliveryConfirmedAt)
		repo.AssertNotCalled(t, "ConfirmDelivery", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - paid order", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		order := storedOrder(identity.UserID, models.OrderStatusPaid)

		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()

		_, err := svc.ConfirmDelivery(ctx, identity, order.ID)

		requireAppError(t, err, appErrors.ErrCodeConflict)
	})

	t.Run("Failure - another customer's order", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		order := storedOrder(uuid.New(), models.OrderStatusProcessing)

		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()

		_, err := svc.ConfirmDelivery(ctx, customer(), order.ID)

		requireAppError(t, err, appErrors.ErrCodeNotFound)
		repo.AssertNotCalled(t, "ConfirmDelivery", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Confirmed concurrently returns the stored order", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		order := storedOrder(identity.UserID, models.OrderStatusProcessing)
		confirmed := *order
		confirmed.Status = models.OrderStatusDelivered
		confirmed.ConfirmedDelivery = true

		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()
		repo.On("ConfirmDelivery", ctx, order.ID, mock.Anything).Return(nil, sql.ErrNoRows).Once()
		repo.On("GetOrderByID", ctx, order.ID).Return(&confirmed, nil).Once()

		got, err := svc.ConfirmDelivery(ctx, identity, order.ID)

		require.NoError(t, err)
		assert.True(t, got.ConfirmedDelivery)
	})
}

func TestOrderService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("GetOrder - owner", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		order := storedOrder(identity.UserID, models.OrderStatusPending)
		repo.On("GetOrderByID", ctx, order.ID).Return(order, nil).Once()

		got, err := svc.GetOrder(ctx, identity, order.ID)

		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("GetOrder - not found", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		id := uuid.New()
		repo.On("GetOrderByID", ctx, id).Return(nil, sql.ErrNoRows).Once()

		_, err := svc.GetOrder(ctx, customer(), id)

		requireAppError(t, err, appErrors.ErrCodeNotFound)
	})

	t.Run("GetOrder - store error", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		id := uuid.New()
		repo.On("GetOrderByID", ctx, id).Return(nil, errors.New("timeout")).Once()

		_, err := svc.GetOrder(ctx, customer(), id)

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
	})

	t.Run("ListOrdersForUser - own orders with clamped paging", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		orders := []models.Order{*storedOrder(identity.UserID, models.OrderStatusPending)}
		repo.On("ListOrdersByUser", ctx, identity.UserID, 1, 10).Return(orders, 1, nil).Once()

		got, total, err := svc.ListOrdersForUser(ctx, identity, identity.UserID, 0, 500)

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, got, 1)
	})

	t.Run("ListOrdersForUser - huge page keeps the offset positive", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		identity := customer()
		repo.On("ListOrdersByUser", ctx, identity.UserID, models.MaxPage, 10).Return([]models.Order{}, 3, nil).Once()

		got, total, err := svc.ListOrdersForUser(ctx, identity, identity.UserID, math.MaxInt, 10)

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 3, total)
		repo.AssertExpectations(t)
	})

	t.Run("ListOrdersForUser - someone else", func(t *testing.T) {
		svc, _, _ := newOrderService(t)

		_, _, err := svc.ListOrdersForUser(ctx, customer(), uuid.New(), 1, 10)

		requireAppError(t, err, appErrors.ErrCodeForbidden)
	})

	t.Run("ListOrdersForUser - admin may list anyone", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		userID := uuid.New()
		repo.On("ListOrdersByUser", ctx, userID, 2, 5).Return([]models.Order{}, 0, nil).Once()

		_, _, err := svc.ListOrdersForUser(ctx, admin(), userID, 2, 5)

		require.NoError(t, err)
	})

	t.Run("ListAllOrders - admin", func(t *testing.T) {
		svc, repo, _ := newOrderService(t)
		repo.On("ListOrders", ctx, 1, 20).Return([]models.Order{}, 0, nil).Once()

		_, _, err := svc.ListAllOrders(ctx, admin(), 1, 20)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("ListAllOrders - customer", func(t *testing.T) {
		svc, _, _ := newOrderService(t)

		_, _, err := svc.ListAllOrders(ctx, customer(), 1, 20)

		requireAppError(t, err, appErrors.ErrCodeForbidden)
	})
}
