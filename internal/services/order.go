package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, identity *models.Identity, cart CheckoutCart, delivery *models.DeliveryInfo) (*models.Order, error)
	CreatePaidOrder(ctx context.Context, identity *models.Identity, cart CheckoutCart) (*models.Order, error)
	GetOrder(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error)
	AdvanceStatus(ctx context.Context, identity *models.Identity, id uuid.UUID, current models.OrderStatus) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, identity *models.Identity, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListAllOrders(ctx context.Context, identity *models.Identity, page, size int) ([]models.Order, int, error)
}

type orderService struct {
	repo     repository.OrderRepository
	notifier NotificationService
	checkout config.Checkout
	now      func() time.Time
}

func NewOrderService(repo repository.OrderRepository, notifier NotificationService, checkout config.Checkout) OrderService {
	return &orderService{repo: repo, notifier: notifier, checkout: checkout, now: time.Now}
}

// NewOrderServiceWithClock is NewOrderService with a fixed time source.
func NewOrderServiceWithClock(repo repository.OrderRepository, notifier NotificationService, checkout config.Checkout, now func() time.Time) OrderService {
	return &orderService{repo: repo, notifier: notifier, checkout: checkout, now: now}
}

func requireIdentity(identity *models.Identity) error {
	if identity == nil || identity.UserID == uuid.Nil {
		return appErrors.UnauthorizedError("Sign in required")
	}

	return nil
}

func requireAdmin(identity *models.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	if !identity.IsAdmin {
		return appErrors.ForbiddenError("Administrator access required")
	}

	return nil
}

func (s *orderService) newOrder(identity *models.Identity, snapshot models.CartSnapshot, status models.OrderStatus) *models.Order {
	now := s.now().UTC()

	return &models.Order{
		ID:        uuid.New(),
		UserID:    identity.UserID,
		UserEmail: identity.Email,
		UserName:  identity.Name(),
		Items:     snapshot.Items,
		Total:     snapshot.Total,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateOrder places a cash-on-delivery order from the cart as it is now and
// empties the cart once the order is stored.
func (s *orderService) CreateOrder(ctx context.Context, identity *models.Identity, cart CheckoutCart, delivery *models.DeliveryInfo) (*models.Order, error) {

	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	if delivery == nil {
		return nil, appErrors.AddValidationError("delivery_info", "is required")
	}

	info := *delivery
	if err := info.Normalize(s.checkout.DefaultCity, s.checkout.DefaultPostcode); err != nil {
		return nil, err
	}

	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		return nil, appErrors.BadRequestError("Cannot create order with empty cart")
	}

	order := s.newOrder(identity, snapshot, models.OrderStatusPending)
	order.DeliveryInfo = &info

	return s.place(ctx, order, cart)
}

// CreatePaidOrder records an order whose payment already succeeded. No
// delivery details are collected on this path.
func (s *orderService) CreatePaidOrder(ctx context.Context, identity *models.Identity, cart CheckoutCart) (*models.Order, error) {

	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		return nil, appErrors.BadRequestError("Cannot create order with empty cart")
	}

	return s.place(ctx, s.newOrder(identity, snapshot, models.OrderStatusPaid), cart)
}

func (s *orderService) place(ctx context.Context, order *models.Order, cart CheckoutCart) (*models.Order, error) {

	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, appErrors.DatabaseError("Failed to create order").WithError(err)
	}

	metrics.OrdersCreated.WithLabelValues(order.Status.String()).Inc()

	cart.ClearCart(ctx)

	if s.notifier != nil {
		go s.notifier.NotifyOrderPlaced(context.WithoutCancel(ctx), *order)
	}

	return order, nil
}

func (s *orderService) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

// loadOwnedOrder fetches an order the caller owns or administers. Orders of
// other users are reported as missing.
func (s *orderService) loadOwnedOrder(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin && !order.IsOwnedBy(identity.UserID) {
		return nil, appErrors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error) {

	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	return s.loadOwnedOrder(ctx, identity, id)
}

// AdvanceStatus moves an order one step along pending, processing, delivered.
// current is the status the administrator saw; a different stored status is a
// conflict.
func (s *orderService) AdvanceStatus(ctx context.Context, identity *models.Identity, id uuid.UUID, current models.OrderStatus) (*models.Order, error) {

	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	if !current.IsValid() {
		return nil, appErrors.AddValidationError("current_status", "unknown order status")
	}

	next, ok := current.Next()
	if !ok || !current.CanTransitionTo(next) {
		return nil, appErrors.ConflictError(fmt.Sprintf("Order status %s cannot be advanced", current))
	}

	order, err := s.repo.UpdateStatus(ctx, id, current, next)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.DatabaseError("Failed to update order status").WithError(err)
		}

		// missing, or moved on since the caller looked
		stored, loadErr := s.loadOrder(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}

		return nil, appErrors.ConflictError(fmt.Sprintf("Order is %s, not %s", stored.Status, current))
	}

	metrics.OrderTransitions.WithLabelValues(current.String(), next.String()).Inc()

	return order, nil
}

// ConfirmDelivery marks an order delivered and confirmed. The owner's
// confirmation is timestamped; an administrator's is not. Confirming twice
// returns the order as first confirmed.
func (s *orderService) ConfirmDelivery(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error) {

	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	order, err := s.loadOwnedOrder(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if order.ConfirmedDelivery {
		return order, nil
	}

	if order.Status == models.OrderStatusPaid {
		return nil, appErrors.ConflictError("Paid orders are not delivered through this flow")
	}

	var confirmedAt *time.Time
	if order.IsOwnedBy(identity.UserID) {
		now := s.now().UTC()
		confirmedAt = &now
	}

	confirmed, err := s.repo.ConfirmDelivery(ctx, id, confirmedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// confirmed concurrently
			return s.loadOrder(ctx, id)
		}
		return nil, appErrors.DatabaseError("Failed to confirm delivery").WithError(err)
	}

	metrics.OrderTransitions.WithLabelValues(order.Status.String(), models.OrderStatusDelivered.String()).Inc()

	if s.notifier != nil && !order.IsOwnedBy(identity.UserID) {
		go s.notifier.NotifyDeliveryConfirmed(context.WithoutCancel(ctx), *confirmed)
	}

	return confirmed, nil
}

// ListOrdersForUser lists userID's orders, newest first. Customers may only
// list their own.
func (s *orderService) ListOrdersForUser(ctx context.Context, identity *models.Identity, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	if err := requireIdentity(identity); err != nil {
		return nil, 0, err
	}

	if !identity.IsAdmin && identity.UserID != userID {
		return nil, 0, appErrors.ForbiddenError("Cannot list another user's orders")
	}

	page, size = models.ClampPage(page, size)

	orders, total, err := s.repo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

// ListAllOrders lists every order, newest first.
func (s *orderService) ListAllOrders(ctx context.Context, identity *models.Identity, page, size int) ([]models.Order, int, error) {

	if err := requireAdmin(identity); err != nil {
		return nil, 0, err
	}

	page, size = models.ClampPage(page, size)

	orders, total, err := s.repo.ListOrders(ctx, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}
